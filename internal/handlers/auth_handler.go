package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shopbackend/internal/models"
	"shopbackend/internal/responses"
	"shopbackend/internal/services"
)

// Cookie configuration
const (
	RefreshTokenCookieName = "refresh_token"
	RefreshTokenMaxAge     = 30 * 24 * 3600 // 30 days in seconds
)

type AuthHandler struct {
	authService     *services.AuthService
	customerService *services.CustomerService
}

func NewAuthHandler(authService *services.AuthService, customerService *services.CustomerService) *AuthHandler {
	return &AuthHandler{authService: authService, customerService: customerService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email"      binding:"required,email"`
		Password  string `json:"password"   binding:"required,min=8"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Please provide your email and password correctly")
		return
	}

	customer := &models.Customer{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	}
	accessToken, refreshToken, err := h.authService.Register(c.Request.Context(), customer)
	if err != nil {
		status := http.StatusInternalServerError
		if err == services.ErrEmailTaken {
			status = http.StatusConflict
		}
		responses.Fail(c, status, err, "Could not register account")
		return
	}

	c.SetCookie(RefreshTokenCookieName, refreshToken, RefreshTokenMaxAge, "/", "", true, true)

	responses.Success(c, http.StatusCreated, gin.H{"access_token": accessToken}, "Account registered successfully!")
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"    binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	accessToken, refreshToken, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		responses.Fail(c, http.StatusUnauthorized, err, "Failed to login")
		return
	}

	c.SetCookie(RefreshTokenCookieName, refreshToken, RefreshTokenMaxAge, "/", "", true, true)

	responses.Success(c, http.StatusOK, gin.H{"access_token": accessToken}, "Logged in successfully!")
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(RefreshTokenCookieName)
	if err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Missing refresh token")
		return
	}

	accessToken, newRefreshToken, err := h.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		c.SetCookie(RefreshTokenCookieName, "", -1, "/", "", true, true)
		responses.Fail(c, http.StatusUnauthorized, err, "Invalid or expired refresh token")
		return
	}

	c.SetCookie(RefreshTokenCookieName, newRefreshToken, RefreshTokenMaxAge, "/", "", true, true)

	responses.Success(c, http.StatusOK, gin.H{"access_token": accessToken}, "Access token refreshed successfully")
}

func (h *AuthHandler) Logout(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
		if err := h.authService.Logout(c.Request.Context(), parts[1]); err != nil {
			responses.Fail(c, http.StatusUnauthorized, err, "Could not revoke token")
			return
		}
	}

	c.SetCookie(RefreshTokenCookieName, "", -1, "/", "", true, true)

	responses.Success(c, http.StatusOK, nil, "Logged out successfully")
}

// RequestPasswordReset always answers 200 so the endpoint cannot be used to
// enumerate registered addresses.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	if err := h.customerService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		responses.Fail(c, http.StatusInternalServerError, err, "Could not start password reset")
		return
	}
	responses.Success(c, http.StatusOK, nil, "If the address is registered, a reset code has been sent")
}

func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Email       string `json:"email"        binding:"required,email"`
		Code        string `json:"code"         binding:"required,len=6"`
		NewPassword string `json:"new_password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Invalid Format")
		return
	}

	if err := h.customerService.ConfirmPasswordReset(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		responses.Fail(c, http.StatusBadRequest, err, "Could not reset password")
		return
	}
	responses.Success(c, http.StatusOK, nil, "Password updated successfully")
}
