package jobs

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/shared/server/middleware"
	"github.com/antonpme/CV-Optimizer/internal/shared/server/respond"
)

// Handler wires job description endpoints to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches job description routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/jobs", h.create)
	rg.GET("/jobs", h.list)
	rg.DELETE("/jobs/:id", h.delete)
}

type createRequest struct {
	Title   string `json:"title" binding:"max=150"`
	Company string `json:"company" binding:"max=150"`
	Text    string `json:"text" binding:"required"`
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Please review the form and fix any issues.", respond.FieldErrors(err))
		return
	}
	job, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), Input{
		Title:   req.Title,
		Company: req.Company,
		Text:    req.Text,
	})
	if err != nil {
		if errors.Is(err, ErrLimitReached) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "Maximum of 20 job descriptions stored. Remove one to add another.", nil)
			return
		}
		writeError(c, err, "Could not save the job description.")
		return
	}
	respond.Created(c, "Job description added.", "job", job)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "failed to list job descriptions")
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id")); err != nil {
		writeError(c, err, "Could not remove the job description.")
		return
	}
	respond.NoContent(c)
}

func writeError(c *gin.Context, err error, fallback string) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", verr.Message, nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid request. Please try again.", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Job description not found.", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal", fallback, nil)
	}
}
