package applications

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"admissions-backend/internal/shared/server/middleware"
	"admissions-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/applications", h.create)
	rg.GET("/applications", h.listMine)
}

type createRequest struct {
	Program string `json:"program"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
			return
		}
	}
	app, err := h.Svc.Create(c.Request.Context(), middleware.ActorIDFromContext(c), req.Program)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "invalid_request", err.Error(), nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create application", nil)
		return
	}
	c.Set("applicationId", app.ID)
	respond.JSON(c, http.StatusCreated, app)
}

func (h *Handler) listMine(c *gin.Context) {
	apps, err := h.Svc.ListMine(c.Request.Context(), middleware.ActorIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list applications", nil)
		return
	}
	respond.OK(c, gin.H{"applications": apps})
}
