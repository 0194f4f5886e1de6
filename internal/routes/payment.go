package routes

import (
	"github.com/gin-gonic/gin"

	"shopbackend/internal/handlers"
	"shopbackend/internal/middlewares"
	"shopbackend/internal/repositories"
	"shopbackend/internal/services"
)

type PaymentRoutes struct {
	handler   *handlers.PaymentHandler
	sessions  services.SessionStore
	customers repositories.CustomerStore
}

func NewPaymentRoutes(handler *handlers.PaymentHandler, sessions services.SessionStore, customers repositories.CustomerStore) *PaymentRoutes {
	return &PaymentRoutes{handler: handler, sessions: sessions, customers: customers}
}

func (r *PaymentRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	payments := rg.Group("/payments")
	{
		// Initiation and polling stay open for guest checkout; the order ID
		// itself is the capability.
		payments.POST("/mpesa/initiate", r.handler.Initiate)
		payments.GET("/mpesa/:id", r.handler.Status)

		// Daraja calls this one.
		payments.POST("/mpesa/callback", r.handler.Callback)

		// Refunds are staff-only.
		payments.POST("/mpesa/:id/refund",
			middlewares.Authenticate(r.sessions), middlewares.RequireStaff(r.customers), r.handler.Refund)
	}
}
