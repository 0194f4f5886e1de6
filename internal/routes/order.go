package routes

import (
	"github.com/gin-gonic/gin"

	"shopbackend/internal/handlers"
	"shopbackend/internal/middlewares"
	"shopbackend/internal/repositories"
	"shopbackend/internal/services"
)

type OrderRoutes struct {
	handler   *handlers.OrderHandler
	sessions  services.SessionStore
	customers repositories.CustomerStore
}

func NewOrderRoutes(handler *handlers.OrderHandler, sessions services.SessionStore, customers repositories.CustomerStore) *OrderRoutes {
	return &OrderRoutes{handler: handler, sessions: sessions, customers: customers}
}

func (r *OrderRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		// Guest checkout is allowed, so creation only authenticates when a
		// token is offered.
		orders.POST("", optionalAuth(r.sessions), r.handler.Create)

		authed := orders.Group("")
		authed.Use(middlewares.Authenticate(r.sessions))
		{
			authed.GET("", r.handler.ListMine)
			authed.GET("/:id", r.handler.Get)
		}

		staff := orders.Group("")
		staff.Use(middlewares.Authenticate(r.sessions), middlewares.RequireStaff(r.customers))
		{
			staff.PATCH("/:id/status", r.handler.UpdateStatus)
		}
	}
}
