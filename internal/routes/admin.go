package routes

import (
	"github.com/gin-gonic/gin"

	"shopbackend/internal/handlers"
	"shopbackend/internal/middlewares"
	"shopbackend/internal/repositories"
	"shopbackend/internal/services"
)

type AdminRoutes struct {
	handler   *handlers.AdminHandler
	sessions  services.SessionStore
	customers repositories.CustomerStore
}

func NewAdminRoutes(handler *handlers.AdminHandler, sessions services.SessionStore, customers repositories.CustomerStore) *AdminRoutes {
	return &AdminRoutes{handler: handler, sessions: sessions, customers: customers}
}

func (r *AdminRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middlewares.Authenticate(r.sessions), middlewares.RequireStaff(r.customers))
	{
		admin.GET("/queues", r.handler.QueueStats)
		admin.GET("/tasks/:id", r.handler.TaskResult)
		admin.POST("/tasks", r.handler.EnqueueTask)
	}
}
