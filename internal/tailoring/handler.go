package tailoring

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/jobs"
	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/shared/server/middleware"
	"github.com/antonpme/CV-Optimizer/internal/shared/server/respond"
	"github.com/antonpme/CV-Optimizer/internal/usage"
)

// Handler wires batch generation to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the batch generation route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generated", h.generate)
}

type generateRequest struct {
	JobIDs             []string `json:"job_ids" binding:"dive,uuid"`
	EmbellishmentLevel int      `json:"embellishment_level" binding:"omitempty,min=1,max=5"`
}

func (h *Handler) generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid generation request.", respond.FieldErrors(err))
		return
	}
	c.Set(middleware.LogKeyRunType, string(runs.TypeGeneration))

	res, err := h.Svc.GenerateBatch(c.Request.Context(), middleware.UserIDFromContext(c), Request{
		JobIDs:             req.JobIDs,
		EmbellishmentLevel: req.EmbellishmentLevel,
	})
	if err != nil {
		var (
			denied *usage.DeniedError
			verr   *ValidationError
			jerr   *jobs.ValidationError
		)
		switch {
		case errors.As(err, &denied):
			usage.RespondDenied(c, denied)
		case errors.As(err, &verr):
			respond.Error(c, http.StatusBadRequest, "validation_error", verr.Message, nil)
		case errors.As(err, &jerr):
			respond.Error(c, http.StatusBadRequest, "validation_error", jerr.Message, nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", "Generation failed. Please try again.", nil)
		}
		return
	}

	status := http.StatusOK
	if res.Status == BatchError {
		status = http.StatusBadGateway
	}
	respond.JSON(c, status, res)
}
