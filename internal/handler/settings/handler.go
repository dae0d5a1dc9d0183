package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/rbac"
	"github.com/jwalitptl/clinic-api/internal/service/settings"
)

type Handler struct {
	svc *settings.Service
}

func NewHandler(svc *settings.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/settings", middleware.Authorize(model.CollectionSettings, rbac.OpRead), h.Get)
	r.PUT("/settings", middleware.Authorize(model.CollectionSettings, rbac.OpUpdate), h.Update)
}

func (h *Handler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Get(c.Request.Context()))
}

func (h *Handler) Update(c *gin.Context) {
	patch, err := handler.BindRecord(c)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	merged, err := h.svc.Merge(c.Request.Context(), patch)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, merged)
}
