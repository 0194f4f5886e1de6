package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shopbackend/internal/responses"
	"shopbackend/internal/services"
)

type CustomerHandler struct {
	customerService *services.CustomerService
}

func NewCustomerHandler(customerService *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

func (h *CustomerHandler) Me(c *gin.Context) {
	customerID, ok := c.MustGet("customerId").(uuid.UUID)
	if !ok {
		responses.Fail(c, http.StatusUnauthorized, nil, "Unauthorized")
		return
	}

	customer, err := h.customerService.Get(c.Request.Context(), customerID)
	if err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not load profile")
		return
	}
	if customer == nil {
		responses.Fail(c, http.StatusNotFound, nil, "Account not found")
		return
	}
	responses.Success(c, http.StatusOK, customer, "Profile retrieved successfully")
}
