package server

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"shopbackend/internal/config"
	"shopbackend/internal/database"
	"shopbackend/internal/mailer"
	"shopbackend/internal/mpesa"
	"shopbackend/internal/queue"
	"shopbackend/internal/repositories"
	"shopbackend/internal/services"
	"shopbackend/internal/tasks"
)

// App holds the shared wiring used by the API server, the worker, and beat.
type App struct {
	Cfg *config.Config
	Log *logrus.Logger

	Pool  *pgxpool.Pool
	Redis *redis.Client

	Broker *queue.RedisBroker
	Client *queue.Client

	Customers repositories.CustomerStore
	Products  repositories.ProductStore
	Reviews   repositories.ReviewStore
	Orders    repositories.OrderStore
	Payments  repositories.PaymentStore
	Inventory repositories.InventoryStore
	Sessions  *repositories.RedisRepository

	AuthService     *services.AuthService
	CustomerService *services.CustomerService
	ProductService  *services.ProductService
	OrderService    *services.OrderService
	PaymentService  *services.PaymentService
	InventorySvc    *services.InventoryService
}

// NewApp connects to Postgres and Redis and wires every repository and
// service. Callers own the returned resources and should Close when done.
func NewApp(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*App, error) {
	pool, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	{
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			pool.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
	}

	app := &App{Cfg: cfg, Log: log, Pool: pool, Redis: rdb}

	app.Customers = repositories.NewCustomerRepository(pool)
	app.Products = repositories.NewProductRepository(pool)
	app.Reviews = repositories.NewReviewRepository(pool)
	app.Orders = repositories.NewOrderRepository(pool)
	app.Payments = repositories.NewPaymentRepository(pool)
	app.Inventory = repositories.NewInventoryRepository(pool)
	app.Sessions = repositories.NewRedisRepository(rdb)

	app.Broker = queue.NewRedisBroker(rdb)
	app.Client = queue.NewClient(app.Broker, tasks.NewRouter())

	mail := mailer.FromConfig(cfg.SMTP, log)
	daraja := mpesa.NewClient(cfg.Mpesa, app.Sessions, log)
	adminEmails := cfg.SMTP.AdminEmails

	app.AuthService = services.NewAuthService(app.Customers, app.Sessions, app.Client, log)
	app.CustomerService = services.NewCustomerService(app.Customers, app.Client, mail, adminEmails, log)
	app.ProductService = services.NewProductService(app.Products, app.Reviews, app.Orders, app.Client, mail, adminEmails, log)
	app.OrderService = services.NewOrderService(app.Orders, app.Products, app.Customers, app.Client, mail, adminEmails, log)
	app.PaymentService = services.NewPaymentService(app.Payments, app.Orders, app.Customers, daraja, app.Client, mail, adminEmails, log)
	app.InventorySvc = services.NewInventoryService(app.Inventory, app.Products, app.Client, mail, adminEmails, log)

	return app, nil
}

// TaskServices bundles the services the task handlers need.
func (a *App) TaskServices() tasks.Services {
	return tasks.Services{
		Customers: a.CustomerService,
		Orders:    a.OrderService,
		Payments:  a.PaymentService,
		Inventory: a.InventorySvc,
		Products:  a.ProductService,
	}
}

func (a *App) Close() {
	a.Pool.Close()
	if err := a.Redis.Close(); err != nil {
		a.Log.WithError(err).Warn("redis close failed")
	}
}
