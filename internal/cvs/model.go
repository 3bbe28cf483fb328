package cvs

import (
	"time"

	"github.com/antonpme/CV-Optimizer/internal/llm"
)

// CV is a user-owned CV text. At most one per user is the reference.
type CV struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	Title       string    `json:"title"`
	TextContent string    `json:"textContent"`
	IsReference bool      `json:"isReference"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// OptimizedCV is the stored result of one optimization run.
type OptimizedCV struct {
	ID                 string       `json:"id"`
	UserID             string       `json:"-"`
	CVID               string       `json:"cvId"`
	OptimizedText      string       `json:"optimizedText"`
	ChangesSummary     []llm.Change `json:"changesSummary"`
	OverallConfidence  *float64     `json:"overallConfidence,omitempty"`
	Recommendations    []string     `json:"recommendations"`
	EmbellishmentLevel int          `json:"embellishmentLevel"`
	CreatedAt          time.Time    `json:"createdAt"`
}
