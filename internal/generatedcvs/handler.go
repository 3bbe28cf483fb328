package generatedcvs

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/antonpme/CV-Optimizer/internal/shared/server/middleware"
	"github.com/antonpme/CV-Optimizer/internal/shared/server/respond"
)

// Handler wires generated CV endpoints to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches generated CV routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/generated", h.list)
	rg.GET("/generated/:id", h.get)
	rg.GET("/generated/:id/export", h.export)
	rg.POST("/generated/sections/:id/review", h.review)
}

// SectionView is a section with its effective text resolved.
type SectionView struct {
	Section
	EffectiveText string `json:"effectiveText"`
}

// Views resolves effective text for each section.
func Views(sections []Section) []SectionView {
	out := make([]SectionView, len(sections))
	for i, s := range sections {
		out[i] = SectionView{Section: s, EffectiveText: s.EffectiveText()}
	}
	return out
}

func (h *Handler) list(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	items, err := h.Svc.List(c.Request.Context(), middleware.UserIDFromContext(c), limit, offset)
	if err != nil {
		writeError(c, err, "failed to list generated CVs")
		return
	}
	respond.OK(c, gin.H{"items": items})
}

func (h *Handler) get(c *gin.Context) {
	c.Set(middleware.LogKeyGeneratedCVID, c.Param("id"))
	doc, sections, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"))
	if err != nil {
		writeError(c, err, "failed to load generated CV")
		return
	}
	respond.OK(c, gin.H{"generatedCv": doc, "sections": Views(sections)})
}

type reviewRequest struct {
	Action    string `json:"action" binding:"required,oneof=approve reject"`
	FinalText string `json:"final_text"`
}

func (h *Handler) review(c *gin.Context) {
	c.Set(middleware.LogKeySectionID, c.Param("id"))
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid section update.", respond.FieldErrors(err))
		return
	}
	res, err := h.Svc.Review(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), ReviewInput{
		Action:    req.Action,
		FinalText: req.FinalText,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "Section not found or access denied.", nil)
			return
		}
		writeError(c, err, "Could not update the section. Please try again.")
		return
	}
	respond.OK(c, gin.H{
		"status":         "success",
		"message":        res.Message,
		"section":        SectionView{Section: res.Section, EffectiveText: res.Section.EffectiveText()},
		"documentStatus": res.DocumentStatus,
	})
}

func (h *Handler) export(c *gin.Context) {
	c.Set(middleware.LogKeyGeneratedCVID, c.Param("id"))
	file, err := h.Svc.Export(c.Request.Context(), middleware.UserIDFromContext(c), c.Param("id"), c.Query("format"))
	if err != nil {
		switch {
		case errors.Is(err, ErrExportNotAllowed):
			respond.Error(c, http.StatusForbidden, "forbidden", "Your plan does not include exports.", nil)
		case errors.Is(err, ErrExportFailed):
			respond.Error(c, http.StatusInternalServerError, "internal", "Export failed. Please try again.", nil)
		default:
			writeError(c, err, "Export failed. Please try again.")
		}
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Body)
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
