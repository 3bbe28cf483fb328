package cvs

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/shared/server/middleware"
	"github.com/antonpme/CV-Optimizer/internal/shared/server/respond"
	"github.com/antonpme/CV-Optimizer/internal/usage"
)

// Handler wires CV endpoints to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches CV routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/cvs", h.create)
	rg.GET("/cvs", h.list)
	rg.POST("/cvs/:id/reference", h.setReference)
	rg.POST("/cvs/:id/optimize", h.optimize)
}

type createRequest struct {
	Title string `json:"title" binding:"max=120"`
	Text  string `json:"text" binding:"required"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Please review the form and fix any issues.", respond.FieldErrors(err))
		return
	}
	cv, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), req.Title, req.Text)
	if err != nil {
		writeError(c, err, "Could not save the CV. Please try again.")
		return
	}
	respond.Created(c, "CV uploaded successfully.", "cv", cv)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to list CVs")
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) setReference(c *gin.Context) {
	if err := h.Svc.SetReference(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err, "Could not update the reference CV.")
		return
	}
	respond.OK(c, gin.H{"message": "Reference CV updated."})
}

type optimizeRequest struct {
	EmbellishmentLevel int `json:"embellishment_level" binding:"omitempty,min=1,max=5"`
}

func (h *Handler) optimize(c *gin.Context) {
	var req optimizeRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid request. Please try again.", respond.FieldErrors(err))
			return
		}
	}
	c.Set(middleware.LogKeyRunType, string(runs.TypeOptimization))
	opt, err := h.Svc.Optimize(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), req.EmbellishmentLevel)
	if err != nil {
		var denied *usage.DeniedError
		if errors.As(err, &denied) {
			usage.RespondDenied(c, denied)
			return
		}
		if errors.Is(err, ErrOptimizationFailed) {
			respond.Error(c, http.StatusBadGateway, "llm_error", "Optimisation failed. Please try again.", nil)
			return
		}
		writeError(c, err, "Optimisation failed.")
		return
	}
	respond.OK(c, gin.H{"message": "Reference CV optimised.", "optimized": opt})
}

func writeError(c *gin.Context, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", verr.Message, nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid request. Please try again.", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "CV not found.", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", fallback, nil)
	}
}
