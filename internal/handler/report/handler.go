package report

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/report"
)

type Handler struct {
	svc *report.Service
}

func NewHandler(svc *report.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/reports/dashboard", middleware.RequireRole(model.RoleAdmin, model.RoleDoctor), h.Dashboard)
}

func (h *Handler) Dashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Dashboard(c.Request.Context()))
}
