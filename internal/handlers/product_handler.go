package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shopbackend/internal/models"
	"shopbackend/internal/repositories"
	"shopbackend/internal/responses"
	"shopbackend/internal/services"
	"shopbackend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
	reviews        repositories.ReviewStore
}

func NewProductHandler(productService *services.ProductService, reviews repositories.ReviewStore) *ProductHandler {
	return &ProductHandler{productService: productService, reviews: reviews}
}

// List supports category, brand, search, price range and pagination query
// parameters. Prices are given in cents.
func (h *ProductHandler) List(c *gin.Context) {
	filter := repositories.ProductFilter{
		Search: c.Query("search"),
		Limit:  20,
	}

	if v := c.Query("category_id"); v != "" {
		id, err := utils.ParseUUID(v)
		if err != nil {
			responses.Fail(c, http.StatusBadRequest, err, "Invalid category ID")
			return
		}
		filter.CategoryID = &id
	}
	if v := c.Query("brand_id"); v != "" {
		id, err := utils.ParseUUID(v)
		if err != nil {
			responses.Fail(c, http.StatusBadRequest, err, "Invalid brand ID")
			return
		}
		filter.BrandID = &id
	}
	if v := c.Query("min_price"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinPrice = &n
		}
	}
	if v := c.Query("max_price"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxPrice = &n
		}
	}
	filter.InStockOnly = c.Query("in_stock") == "true"
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 && n <= 100 {
		filter.Limit = n
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n >= 0 {
		filter.Offset = n
	}

	products, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list products")
		return
	}
	responses.Success(c, http.StatusOK, products, "Products retrieved successfully")
}

func (h *ProductHandler) GetBySlug(c *gin.Context) {
	product, err := h.productService.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load product")
		return
	}
	if product == nil {
		responses.Fail(c, http.StatusNotFound, nil, "Product not found")
		return
	}
	responses.Success(c, http.StatusOK, product, "Product retrieved successfully")
}

func (h *ProductHandler) ListReviews(c *gin.Context) {
	productID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid product ID")
		return
	}

	reviews, err := h.reviews.ListByProduct(c.Request.Context(), productID, true)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load reviews")
		return
	}
	responses.Success(c, http.StatusOK, reviews, "Reviews retrieved successfully")
}

func (h *ProductHandler) SubmitReview(c *gin.Context) {
	productID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid product ID")
		return
	}
	customerID, ok := c.MustGet("customerId").(uuid.UUID)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	var req struct {
		Rating  int    `json:"rating"  binding:"required,min=1,max=5"`
		Title   string `json:"title"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	review := &models.Review{
		ProductID:  productID,
		CustomerID: customerID,
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
	}
	if err := h.productService.SubmitReview(c.Request.Context(), review); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not submit review")
		return
	}
	responses.Success(c, http.StatusCreated, review, "Review submitted, pending moderation")
}
