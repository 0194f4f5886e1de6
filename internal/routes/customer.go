package routes

import (
	"github.com/gin-gonic/gin"

	"shopbackend/internal/handlers"
	"shopbackend/internal/middlewares"
	"shopbackend/internal/services"
)

type CustomerRoutes struct {
	handler  *handlers.CustomerHandler
	sessions services.SessionStore
}

func NewCustomerRoutes(handler *handlers.CustomerHandler, sessions services.SessionStore) *CustomerRoutes {
	return &CustomerRoutes{handler: handler, sessions: sessions}
}

func (r *CustomerRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	customers.Use(middlewares.Authenticate(r.sessions))
	{
		customers.GET("/me", r.handler.Me)
	}
}
