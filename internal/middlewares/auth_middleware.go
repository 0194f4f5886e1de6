package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shopbackend/internal/services"
	"shopbackend/internal/utils"
)

// Authenticate verifies the bearer token and rejects blacklisted sessions.
// The customer ID lands in the context under "customerId".
func Authenticate(sessions services.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing Authorization header"})
			return
		}

		// Expected format: "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid Authorization format"})
			return
		}

		claims, err := utils.VerifyJWT(parts[1], utils.AccessTokenSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
			return
		}

		blacklisted, err := sessions.IsBlacklisted(c.Request.Context(), claims.ID)
		if err != nil || blacklisted {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token revoked"})
			return
		}

		customerID, err := claims.CustomerID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token subject"})
			return
		}

		c.Set("customerId", customerID)
		c.Next()
	}
}
