package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"shopbackend/internal/database"
	"shopbackend/internal/models"
)

// setupPool starts a throwaway PostgreSQL container, runs the migrations
// against it and returns a connected pool. Skipped under -short.
func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("requires docker")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("shopbackend_test"),
		postgres.WithUsername("shopbackend"),
		postgres.WithPassword("shopbackend"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, testcontainers.TerminateContainer(container)) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	require.NoError(t, database.RunMigrations(ctx, pool, log))
	return pool
}

func seedCustomer(t *testing.T, pool *pgxpool.Pool) *models.Customer {
	t.Helper()
	c := &models.Customer{
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "not-a-real-hash",
		FirstName:    "Wanjiku",
		LastName:     "Kamau",
	}
	require.NoError(t, NewCustomerRepository(pool).Create(context.Background(), c))
	return c
}

// seedProduct inserts a product plus the category and brand rows its
// foreign keys require.
func seedProduct(t *testing.T, pool *pgxpool.Pool) *models.Product {
	t.Helper()
	ctx := context.Background()

	categoryID, brandID := uuid.New(), uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO categories (id, name, slug) VALUES ($1, $2, $3)`,
		categoryID, "Headphones "+categoryID.String()[:8], "headphones-"+categoryID.String()[:8])
	require.NoError(t, err)
	_, err = pool.Exec(ctx,
		`INSERT INTO brands (id, name, slug) VALUES ($1, $2, $3)`,
		brandID, "Brand "+brandID.String()[:8], "brand-"+brandID.String()[:8])
	require.NoError(t, err)

	product := &models.Product{
		Name:          "Wireless Headphones",
		SKU:           "SKU-" + uuid.NewString()[:8],
		CategoryID:    categoryID,
		BrandID:       brandID,
		Price:         2_499_900,
		StockQuantity: 12,
		IsActive:      true,
	}
	require.NoError(t, NewProductRepository(pool).Create(ctx, product))
	return product
}
