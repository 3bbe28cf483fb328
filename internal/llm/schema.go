package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// OptimizeResult is the validated optimization output.
type OptimizeResult struct {
	OptimizedCV       string   `json:"optimized_cv" validate:"required"`
	ChangesSummary    []Change `json:"changes_summary" validate:"dive"`
	OverallConfidence *float64 `json:"overall_confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
	Recommendations   []string `json:"recommendations"`
}

// Change describes one edit made to a CV section.
type Change struct {
	Section    string   `json:"section"`
	Change     string   `json:"change"`
	Confidence *float64 `json:"confidence,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// TailorResult is the validated tailoring output.
type TailorResult struct {
	TailoredCV        string          `json:"tailored_cv" validate:"required"`
	OptimizationNotes string          `json:"optimization_notes,omitempty"`
	MatchAnalysis     *MatchAnalysis  `json:"match_analysis,omitempty"`
	Sections          []TailorSection `json:"sections" validate:"dive"`
}

// MatchAnalysis summarizes fit against the job.
type MatchAnalysis struct {
	OverallMatchScore *float64 `json:"overall_match_score,omitempty" validate:"omitempty,gte=0,lte=1"`
	Strengths         []string `json:"strengths"`
	Gaps              []string `json:"gaps"`
}

// TailorSection pairs a reference section with its tailored rewrite.
type TailorSection struct {
	Name             string `json:"name" validate:"required"`
	ReferenceSection string `json:"reference_section"`
	TailoredSection  string `json:"tailored_section" validate:"required"`
	Rationale        string `json:"rationale,omitempty"`
}

var validate = validator.New()

// ParseOptimizeResult decodes and validates raw model content.
func ParseOptimizeResult(raw []byte) (OptimizeResult, error) {
	var out OptimizeResult
	if err := decode(raw, &out); err != nil {
		return OptimizeResult{}, err
	}
	out.OptimizedCV = strings.TrimSpace(out.OptimizedCV)
	if err := validate.Struct(out); err != nil {
		return OptimizeResult{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	if out.ChangesSummary == nil {
		out.ChangesSummary = []Change{}
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	return out, nil
}

// ParseTailorResult decodes and validates raw model content.
func ParseTailorResult(raw []byte) (TailorResult, error) {
	var out TailorResult
	if err := decode(raw, &out); err != nil {
		return TailorResult{}, err
	}
	out.TailoredCV = strings.TrimSpace(out.TailoredCV)
	for i := range out.Sections {
		out.Sections[i].Name = strings.TrimSpace(out.Sections[i].Name)
		out.Sections[i].TailoredSection = strings.TrimSpace(out.Sections[i].TailoredSection)
	}
	if err := validate.Struct(out); err != nil {
		return TailorResult{}, fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return out, nil
}

func decode(raw []byte, v any) error {
	if !json.Valid(raw) {
		return fmt.Errorf("%w: invalid JSON", ErrSchemaMismatch)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaMismatch, err)
	}
	return nil
}
