package records

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/service/rbac"
	"github.com/jwalitptl/clinic-api/internal/service/records"
)

type Handler struct {
	svc *records.Service
}

func NewHandler(svc *records.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the CRUD surface of each collection. Only operations
// present in the role policy get a route; everything else falls through to
// the 404 handler.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, collections []string) {
	for _, name := range collections {
		g := r.Group("/" + name)
		if rbac.Supports(name, rbac.OpRead) {
			g.GET("", middleware.Authorize(name, rbac.OpRead), h.list(name))
			g.GET("/:id", middleware.Authorize(name, rbac.OpRead), h.get(name))
		}
		if rbac.Supports(name, rbac.OpCreate) {
			g.POST("", middleware.Authorize(name, rbac.OpCreate), h.create(name))
		}
		if rbac.Supports(name, rbac.OpUpdate) {
			g.PUT("/:id", middleware.Authorize(name, rbac.OpUpdate), h.update(name))
		}
		if rbac.Supports(name, rbac.OpDelete) {
			g.DELETE("/:id", middleware.Authorize(name, rbac.OpDelete), h.delete(name))
		}
	}
}

func (h *Handler) list(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, h.svc.List(c.Request.Context(), collection))
	}
}

func (h *Handler) get(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := h.svc.Get(c.Request.Context(), collection, c.Param("id"))
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (h *Handler) create(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := handler.BindRecord(c)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		rec, err := h.svc.Create(c.Request.Context(), collection, body, middleware.CurrentUser(c))
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, rec)
	}
}

func (h *Handler) update(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := handler.BindRecord(c)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		rec, err := h.svc.Update(c.Request.Context(), collection, c.Param("id"), body)
		if err != nil {
			handler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rec)
	}
}

func (h *Handler) delete(collection string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.svc.Delete(c.Request.Context(), collection, c.Param("id")); err != nil {
			handler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, handler.MessageResponse{
			Message: fmt.Sprintf("%s deleted", records.Label(collection)),
		})
	}
}
