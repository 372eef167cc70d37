package handlers

import (
	"github.com/gin-gonic/gin"

	"retailcore/internal/domain/auth"
	"retailcore/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login.
type AuthHandler struct {
	*BaseHandler
	svc *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, svc *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, svc: svc}
}

// RegisterRoutes registers auth endpoints on the public group.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/auth/login", h.Login)
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, user, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.LoginResponse{Token: token, User: dto.FromUser(user)})
}
