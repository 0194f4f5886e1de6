package routes

import (
	"github.com/gin-gonic/gin"

	"shopbackend/internal/handlers"
)

type AuthRoutes struct {
	handler *handlers.AuthHandler
}

func NewAuthRoutes(handler *handlers.AuthHandler) *AuthRoutes {
	return &AuthRoutes{handler: handler}
}

func (r *AuthRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", r.handler.Register)
		auth.POST("/login", r.handler.Login)
		auth.POST("/refresh", r.handler.Refresh)
		auth.POST("/logout", r.handler.Logout)
		auth.POST("/password-reset/request", r.handler.RequestPasswordReset)
		auth.POST("/password-reset/confirm", r.handler.ConfirmPasswordReset)
	}
}
