package handlers

import (
	"net/http"

	"table_order_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// Login exchanges the admin credentials for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req, "Login") {
		return
	}
	authResp, err := h.authService.Login(req)
	if err != nil {
		respondServiceError(c, err, "login")
		return
	}
	c.JSON(http.StatusOK, authResp)
}
