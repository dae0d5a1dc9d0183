package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/auth"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

type Handler struct {
	svc       *auth.Service
	validator validator.Validator
}

func NewHandler(svc *auth.Service, v validator.Validator) *Handler {
	return &Handler{svc: svc, validator: v}
}

// RegisterRoutes mounts /auth. login is public and rate limited; the rest
// run behind authenticate.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authenticate, loginLimit gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/login", loginLimit, h.Login)
		auth.GET("/me", authenticate, h.Me)
		auth.POST("/logout", authenticate, h.Logout)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handler.RespondError(c, apperrors.Validation("request body must be a JSON object", err))
		return
	}
	// missing credentials are indistinguishable from wrong ones
	if err := h.validator.Validate(req); err != nil {
		handler.RespondError(c, auth.ErrInvalidCredentials)
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c).Public())
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), c.GetString(middleware.ContextToken)); err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.MessageResponse{Message: "Logged out successfully"})
}
