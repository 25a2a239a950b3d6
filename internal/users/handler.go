package users

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
	rg.GET("/me", h.me)
	rg.PATCH("/users/:id/role", h.changeRole)
}

type roleRequest struct {
	Role   string `json:"role"`
	Active *bool  `json:"active"`
}

func (h *Handler) changeRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "role and active are required", nil)
		return
	}

	user, err := h.Svc.ChangeRole(c.Request.Context(), middleware.ActorIDFromContext(c), c.Param("id"), req.Role, *req.Active)
	switch {
	case err == nil:
		respond.JSON(c, http.StatusOK, toResponse(user))
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "insufficient role for this operation", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "role must be standard or elevated and the target must be another user", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to change role", nil)
	}
}

func toResponse(user User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"fullName":   user.FullName,
		"pictureUrl": user.PictureURL,
		"role":       user.Role,
		"isActive":   user.IsActive,
	}
}

func (h *Handler) me(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	actorID := middleware.ActorIDFromContext(c)
	user, err := h.Svc.GetByID(c.Request.Context(), actorID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load user", nil)
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(user))
}
