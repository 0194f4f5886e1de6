package handlers

import (
	"errors"
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

type OrderHandler struct {
	orderService *services.OrderService
	customers    repositories.CustomerStore
}

func NewOrderHandler(orderService *services.OrderService, customers repositories.CustomerStore) *OrderHandler {
	return &OrderHandler{orderService: orderService, customers: customers}
}

type orderItemRequest struct {
	ProductID string `json:"product_id" binding:"required,uuid"`
	Quantity  int    `json:"quantity"   binding:"required,min=1"`
}

type createOrderRequest struct {
	GuestEmail      string             `json:"guest_email" binding:"omitempty,email"`
	ShippingAddress string             `json:"shipping_address" binding:"required"`
	ShippingCity    string             `json:"shipping_city"    binding:"required"`
	ShippingPhone   string             `json:"shipping_phone"   binding:"required"`
	ShippingCost    int64              `json:"shipping_cost"    binding:"min=0"`
	Items           []orderItemRequest `json:"items"            binding:"required,min=1,dive"`
}

// Create places an order. Works for both logged-in customers and guests;
// guests must supply guest_email.
func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	order := &models.Order{
		GuestEmail:      req.GuestEmail,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingPhone:   req.ShippingPhone,
		ShippingCost:    req.ShippingCost,
	}
	if value, exists := c.Get("customerId"); exists {
		if customerID, ok := value.(uuid.UUID); ok {
			order.CustomerID = &customerID
		}
	}
	if order.CustomerID == nil && order.GuestEmail == "" {
		responses.Fail(c, http.StatusBadRequest, nil, "Guest orders require guest_email")
		return
	}

	for _, item := range req.Items {
		productID, err := utils.ParseUUID(item.ProductID)
		if err != nil {
			responses.Fail(c, http.StatusBadRequest, err, "Invalid product ID")
			return
		}
		order.Items = append(order.Items, models.OrderItem{ProductID: productID, Quantity: item.Quantity})
	}

	if err := h.orderService.Create(c.Request.Context(), order); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not place order")
		return
	}
	responses.Success(c, http.StatusCreated, order, "Order placed successfully")
}

func (h *OrderHandler) Get(c *gin.Context) {
	orderID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid order ID")
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), orderID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load order")
		return
	}
	if order == nil {
		responses.Fail(c, http.StatusNotFound, nil, "Order not found")
		return
	}

	// Customers may only see their own orders; staff may see any.
	if value, exists := c.Get("customerId"); exists {
		customerID, _ := value.(uuid.UUID)
		if order.CustomerID == nil || *order.CustomerID != customerID {
			customer, err := h.customers.FindByID(c.Request.Context(), customerID)
			if err != nil || customer == nil || !customer.IsStaff {
				responses.Fail(c, http.StatusForbidden, nil, "Access denied")
				return
			}
		}
	}
	responses.Success(c, http.StatusOK, order, "Order retrieved successfully")
}

func (h *OrderHandler) ListMine(c *gin.Context) {
	customerID, ok := c.MustGet("customerId").(uuid.UUID)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	limit := 20
	offset := 0
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n >= 0 {
		offset = n
	}

	orders, err := h.orderService.ListForCustomer(c.Request.Context(), customerID, limit, offset)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not list orders")
		return
	}
	responses.Success(c, http.StatusOK, orders, "Orders retrieved successfully")
}

// UpdateStatus applies a status transition. Staff only.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, err := utils.ParseUUID(c.Param("id"))
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid order ID")
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
		Notes  string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	var changedBy *uuid.UUID
	if value, exists := c.Get("customerId"); exists {
		if staffID, ok := value.(uuid.UUID); ok {
			changedBy = &staffID
		}
	}

	err = h.orderService.UpdateStatus(c.Request.Context(), orderID, req.Status, changedBy, req.Notes)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, services.ErrInvalidTransition) {
			status = http.StatusConflict
		}
		responses.Fail(c, status, err, "Could not update order status")
		return
	}
	responses.Success(c, http.StatusOK, gin.H{"status": req.Status}, "Order status updated")
}
