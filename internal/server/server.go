package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"shopbackend/internal/config"
	"shopbackend/internal/handlers"
	"shopbackend/internal/routes"
	"shopbackend/internal/tasks"
)

// New builds the fully wired HTTP server: database, Redis, repositories,
// services, handlers, routes.
func New(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*http.Server, error) {
	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	h := routes.Handlers{
		Auth:      handlers.NewAuthHandler(app.AuthService, app.CustomerService),
		Customer:  handlers.NewCustomerHandler(app.CustomerService),
		Product:   handlers.NewProductHandler(app.ProductService, app.Reviews),
		Order:     handlers.NewOrderHandler(app.OrderService, app.Customers),
		Payment:   handlers.NewPaymentHandler(app.PaymentService, app.Payments),
		Admin:     handlers.NewAdminHandler(app.Broker, app.Client, tasks.Queues()),
		Sessions:  app.Sessions,
		Customers: app.Customers,
	}

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	routes.RegisterRoutes(router, h)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}, nil
}
