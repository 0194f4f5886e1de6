package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shopbackend/internal/repositories"
)

// RequireStaff checks that the authenticated customer is a staff account.
// Must run after Authenticate.
func RequireStaff(customers repositories.CustomerStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("customerId")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		customerID, ok := value.(uuid.UUID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid customer ID"})
			return
		}

		customer, err := customers.FindByID(c.Request.Context(), customerID)
		if err != nil || customer == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Account not found"})
			return
		}
		if !customer.IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Access denied. Staff privileges required."})
			return
		}

		c.Set("authenticatedCustomer", customer)
		c.Next()
	}
}
