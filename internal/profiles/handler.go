package profiles

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/shared/server/middleware"
	"github.com/antonpme/CV-Optimizer/internal/shared/server/respond"
)

// Handler wires profile endpoints to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches profile routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.get)
	rg.PUT("/profile", h.put)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal", "failed to load profile", nil)
		return
	}
	respond.OK(c, p)
}

type putRequest struct {
	FullName            string `json:"full_name" binding:"max=200"`
	JobTitle            string `json:"job_title" binding:"max=200"`
	ProfessionalSummary string `json:"professional_summary" binding:"max=2000"`
	Industry            string `json:"industry" binding:"max=120"`
	EmbellishmentLevel  int    `json:"embellishment_level" binding:"omitempty,min=1,max=5"`
	DataRetentionDays   int    `json:"data_retention_days" binding:"omitempty,min=7,max=365"`
}

func (h *Handler) put(c *gin.Context) {
	var req putRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Please review the form and fix any issues.", respond.FieldErrors(err))
		return
	}
	p, err := h.Svc.Save(c.Request.Context(), middleware.UserIDFromContext(c), Update{
		FullName:            req.FullName,
		JobTitle:            req.JobTitle,
		ProfessionalSummary: req.ProfessionalSummary,
		Industry:            req.Industry,
		EmbellishmentLevel:  req.EmbellishmentLevel,
		DataRetentionDays:   req.DataRetentionDays,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", verr.Message, nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal", "Could not save profile. Please try again.", nil)
		return
	}
	respond.OK(c, p)
}
