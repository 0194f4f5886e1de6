package routes

import (
	"github.com/gin-gonic/gin"

	"shopbackend/internal/handlers"
	"shopbackend/internal/middlewares"
	"shopbackend/internal/services"
)

type ProductRoutes struct {
	handler  *handlers.ProductHandler
	sessions services.SessionStore
}

func NewProductRoutes(handler *handlers.ProductHandler, sessions services.SessionStore) *ProductRoutes {
	return &ProductRoutes{handler: handler, sessions: sessions}
}

func (r *ProductRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	{
		products.GET("", r.handler.List)
		products.GET("/:slug", r.handler.GetBySlug)
	}

	// Review paths key on the product UUID rather than the slug.
	reviews := rg.Group("/products/id/:id/reviews")
	{
		reviews.GET("", r.handler.ListReviews)
		reviews.POST("", middlewares.Authenticate(r.sessions), r.handler.SubmitReview)
	}
}
