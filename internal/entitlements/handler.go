package entitlements

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/shared/server/middleware"
	"github.com/antonpme/CV-Optimizer/internal/shared/server/respond"
)

// Handler wires plan endpoints to the resolver.
type Handler struct {
	Resolver *Resolver
}

// NewHandler constructs a Handler.
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{Resolver: resolver}
}

// RegisterRoutes attaches plan routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/plan", h.get)
	rg.POST("/plan", h.set)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	ent, _, err := h.Resolver.Reconcile(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load plan", nil)
		return
	}
	respond.OK(c, ent)
}

type setPlanRequest struct {
	Plan string `json:"plan" binding:"required,oneof=free pro"`
}

func (h *Handler) set(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	var req setPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Select a valid plan.", respond.FieldErrors(err))
		return
	}
	ent, err := h.Resolver.SetPlan(c.Request.Context(), userID, Plan(req.Plan))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "Select a valid plan.", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "Could not update plan. Please try again.", nil)
		return
	}
	respond.OK(c, gin.H{"message": "Plan updated.", "entitlement": ent})
}
