package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shopbackend/internal/models"
)

type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

const customerColumns = `id, email, password_hash, first_name, last_name, phone,
	loyalty_points, is_active, is_staff, created_at, updated_at, last_login_at`

func scanCustomer(row pgx.Row) (*models.Customer, error) {
	var c models.Customer
	err := row.Scan(
		&c.ID,
		&c.Email,
		&c.PasswordHash,
		&c.FirstName,
		&c.LastName,
		&c.Phone,
		&c.LoyaltyPoints,
		&c.IsActive,
		&c.IsStaff,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	c.Prepare()

	query := `
		INSERT INTO customers (id, email, password_hash, first_name, last_name, phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW(), NOW())
	`
	_, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Email,
		c.PasswordHash,
		c.FirstName,
		c.LastName,
		c.Phone,
	)
	return err
}

func (r *CustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return scanCustomer(r.pool.QueryRow(ctx, query, id))
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`
	return scanCustomer(r.pool.QueryRow(ctx, query, email))
}

func (r *CustomerRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE customers SET last_login_at = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, at)
	return err
}

func (r *CustomerRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE customers SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, passwordHash)
	return err
}

func (r *CustomerRepository) AddLoyaltyPoints(ctx context.Context, id uuid.UUID, points int) error {
	query := `UPDATE customers SET loyalty_points = loyalty_points + $2, updated_at = NOW() WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, points)
	return err
}

func (r *CustomerRepository) FindInactiveSince(ctx context.Context, cutoff time.Time) ([]models.Customer, error) {
	query := `SELECT ` + customerColumns + `
		FROM customers
		WHERE is_active = TRUE
		  AND (last_login_at IS NULL OR last_login_at < $1)
		  AND created_at < $1
		ORDER BY last_login_at NULLS FIRST`

	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) ListActiveEmails(ctx context.Context) ([]string, error) {
	query := `SELECT email FROM customers WHERE is_active = TRUE ORDER BY email`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (r *CustomerRepository) Stats(ctx context.Context, newSince time.Time) (*CustomerStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE created_at >= $1),
		       COUNT(*) FILTER (WHERE loyalty_points > 0),
		       COALESCE(SUM(loyalty_points), 0)
		FROM customers
	`
	var stats CustomerStats
	err := r.pool.QueryRow(ctx, query, newSince).Scan(
		&stats.Total,
		&stats.Active,
		&stats.NewInPeriod,
		&stats.WithLoyalty,
		&stats.LoyaltyBalance,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *CustomerRepository) Engagement(ctx context.Context, now time.Time) (*EngagementStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE last_login_at >= $1),
		       COUNT(*) FILTER (WHERE last_login_at >= $2),
		       COUNT(*) FILTER (WHERE last_login_at >= $3),
		       COUNT(*) FILTER (WHERE last_login_at IS NULL)
		FROM customers
		WHERE is_active = TRUE
	`
	var stats EngagementStats
	err := r.pool.QueryRow(ctx, query,
		now.Add(-30*24*time.Hour),
		now.Add(-60*24*time.Hour),
		now.Add(-90*24*time.Hour),
	).Scan(
		&stats.TotalActive,
		&stats.ActiveLast30,
		&stats.ActiveLast60,
		&stats.ActiveLast90,
		&stats.NeverLogged,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *CustomerRepository) CreateResetCode(ctx context.Context, code *models.PasswordResetCode) error {
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	query := `
		INSERT INTO password_reset_codes (id, customer_id, code, is_used, created_at, expires_at)
		VALUES ($1, $2, $3, FALSE, NOW(), $4)
	`
	_, err := r.pool.Exec(ctx, query, code.ID, code.CustomerID, code.Code, code.ExpiresAt)
	return err
}

func (r *CustomerRepository) FindValidResetCode(ctx context.Context, customerID uuid.UUID, code string, now time.Time) (*models.PasswordResetCode, error) {
	query := `
		SELECT id, customer_id, code, is_used, created_at, expires_at
		FROM password_reset_codes
		WHERE customer_id = $1 AND code = $2 AND is_used = FALSE AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	var rc models.PasswordResetCode
	err := r.pool.QueryRow(ctx, query, customerID, code, now).Scan(
		&rc.ID,
		&rc.CustomerID,
		&rc.Code,
		&rc.IsUsed,
		&rc.CreatedAt,
		&rc.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rc, nil
}

func (r *CustomerRepository) MarkResetCodeUsed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE password_reset_codes SET is_used = TRUE WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *CustomerRepository) DeleteExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	query := `DELETE FROM password_reset_codes WHERE is_used = FALSE AND expires_at < $1`
	tag, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *CustomerRepository) DeleteUsedResetCodesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM password_reset_codes WHERE is_used = TRUE AND created_at < $1`
	tag, err := r.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
