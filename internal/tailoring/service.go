package tailoring

import (
	"context"
	"errors"
	"fmt"

	"github.com/antonpme/CV-Optimizer/internal/cvs"
	"github.com/antonpme/CV-Optimizer/internal/generatedcvs"
	"github.com/antonpme/CV-Optimizer/internal/jobs"
	"github.com/antonpme/CV-Optimizer/internal/llm"
	"github.com/antonpme/CV-Optimizer/internal/profiles"
	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
	"github.com/antonpme/CV-Optimizer/internal/usage"
)

// DefaultEmbellishmentLevel is used when a request does not set one.
const DefaultEmbellishmentLevel = 3

// ItemFailedMessage is the only failure text a caller sees for one job. The
// cause goes to the log and the run ledger.
const ItemFailedMessage = "Generation failed for this job."

// Batch outcome statuses.
const (
	BatchSuccess = "success"
	BatchPartial = "partial"
	BatchError   = "error"
)

// Gate admits quota-consuming actions.
type Gate interface {
	Admit(ctx context.Context, userID string, runType runs.Type, pending int) usage.Admission
}

// BaseReader resolves the text tailoring starts from.
type BaseReader interface {
	TailoringBase(ctx context.Context, userID string) (cvs.Base, error)
}

// JobSelector resolves a batch selection to the user's jobs.
type JobSelector interface {
	Select(ctx context.Context, userID string, ids []string) ([]jobs.JobDescription, error)
}

// DocumentStore persists generated CVs with their sections.
type DocumentStore interface {
	Create(ctx context.Context, d generatedcvs.Draft) (generatedcvs.Document, []generatedcvs.Section, error)
}

// ProfileReader loads the candidate profile.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (profiles.Profile, error)
}

// RunRecorder writes run ledger entries.
type RunRecorder interface {
	Record(ctx context.Context, entry runs.Entry)
}

// Service generates tailored CVs for a batch of job descriptions.
type Service struct {
	CVs       BaseReader
	Jobs      JobSelector
	Profiles  ProfileReader
	Gate      Gate
	LLM       llm.Client
	Documents DocumentStore
	Runs      RunRecorder
}

// Request is one batch generation request.
type Request struct {
	JobIDs             []string
	EmbellishmentLevel int
}

// ItemResult is the outcome for one job in the batch.
type ItemResult struct {
	JobID         string      `json:"jobId"`
	JobLabel      string      `json:"jobLabel"`
	Status        runs.Status `json:"status"`
	GeneratedCVID string      `json:"generatedCvId,omitempty"`
	SectionsCount int         `json:"sectionsCount,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// BatchResult aggregates the item outcomes.
type BatchResult struct {
	Status    string       `json:"status"`
	Message   string       `json:"message"`
	Generated int          `json:"generated"`
	Failed    int          `json:"failed"`
	Items     []ItemResult `json:"items"`
}

// GenerateBatch admits the whole batch once, then generates one tailored CV per
// job sequentially in request order. A failing job is recorded and skipped; it
// never aborts the jobs after it. Items keep running if ctx is canceled.
func (s *Service) GenerateBatch(ctx context.Context, userID string, req Request) (BatchResult, error) {
	ids, err := jobs.NormalizeSelection(req.JobIDs)
	if err != nil {
		return BatchResult{}, err
	}
	level := req.EmbellishmentLevel
	if level == 0 {
		level = DefaultEmbellishmentLevel
	}
	if level < 1 || level > 5 {
		return BatchResult{}, invalid("Embellishment level must be between 1 and 5.")
	}

	if err := s.Gate.Admit(ctx, userID, runs.TypeGeneration, len(ids)).Err(); err != nil {
		return BatchResult{}, err
	}

	base, err := s.CVs.TailoringBase(ctx, userID)
	if err != nil {
		if errors.Is(err, cvs.ErrNotFound) {
			return BatchResult{}, invalid("Set a reference CV before generating tailored versions.")
		}
		return BatchResult{}, err
	}
	selected, err := s.Jobs.Select(ctx, userID, ids)
	if err != nil {
		if errors.Is(err, jobs.ErrNotFound) {
			return BatchResult{}, invalid("Selected job descriptions could not be found.")
		}
		return BatchResult{}, err
	}
	profile := s.profile(ctx, userID)
	profile.EmbellishmentLevel = level

	itemCtx := context.WithoutCancel(ctx)
	out := BatchResult{Items: make([]ItemResult, 0, len(selected))}
	for _, job := range selected {
		item := s.generateOne(itemCtx, userID, base, job, profile, level)
		if item.Status == runs.StatusSuccess {
			out.Generated++
		} else {
			out.Failed++
		}
		out.Items = append(out.Items, item)
	}

	switch {
	case out.Generated == 0:
		out.Status = BatchError
		out.Message = "Generation failed for the selected jobs."
	case out.Failed > 0:
		out.Status = BatchPartial
		out.Message = fmt.Sprintf("Generated %d CV(s), %d failed.", out.Generated, out.Failed)
	default:
		out.Status = BatchSuccess
		out.Message = fmt.Sprintf("Generated %d tailored CV(s).", out.Generated)
	}
	telemetry.Info("tailoring.batch_complete", map[string]any{
		"user_id":   userID,
		"requested": len(ids),
		"generated": out.Generated,
		"failed":    out.Failed,
		"status":    out.Status,
	})
	return out, nil
}

func (s *Service) generateOne(ctx context.Context, userID string, base cvs.Base, job jobs.JobDescription, profile llm.Profile, level int) ItemResult {
	item := ItemResult{JobID: job.ID, JobLabel: job.Label()}

	result, tokens, err := s.LLM.TailorCV(ctx, llm.TailorInput{
		BaseCV:             base.Text,
		JobTitle:           job.Title,
		Company:            job.Company,
		JobDescription:     job.TextContent,
		Profile:            profile,
		EmbellishmentLevel: level,
	})
	var (
		doc      generatedcvs.Document
		sections []generatedcvs.Section
	)
	if err == nil {
		doc, sections, err = s.Documents.Create(ctx, draftFrom(userID, base.CV.ID, job.ID, result))
	}
	if err != nil {
		item.Status = runs.StatusFailed
		item.Error = ItemFailedMessage
		telemetry.Warn("tailoring.item_failed", map[string]any{
			"user_id": userID,
			"jd_id":   job.ID,
			"error":   err.Error(),
		})
		s.Runs.Record(ctx, runs.Entry{
			UserID:       userID,
			Type:         runs.TypeGeneration,
			Status:       runs.StatusFailed,
			TokensInput:  tokens.PromptTokens,
			TokensOutput: tokens.CompletionTokens,
			Metadata: map[string]any{
				"jd_id": job.ID,
				"error": err.Error(),
			},
		})
		return item
	}

	item.Status = runs.StatusSuccess
	item.GeneratedCVID = doc.ID
	item.SectionsCount = len(sections)
	s.Runs.Record(ctx, runs.Entry{
		UserID:       userID,
		Type:         runs.TypeGeneration,
		Status:       runs.StatusSuccess,
		TokensInput:  tokens.PromptTokens,
		TokensOutput: tokens.CompletionTokens,
		Metadata: map[string]any{
			"jd_id":          job.ID,
			"match_analysis": result.MatchAnalysis,
			"sections_count": len(sections),
			"prompt_hash":    tokens.PromptHash,
		},
	})
	return item
}

func draftFrom(userID, cvID, jobID string, result llm.TailorResult) generatedcvs.Draft {
	d := generatedcvs.Draft{
		UserID:            userID,
		CVID:              cvID,
		JobID:             jobID,
		TailoredText:      result.TailoredCV,
		OptimizationNotes: result.OptimizationNotes,
		Sections:          make([]generatedcvs.SectionDraft, 0, len(result.Sections)),
	}
	if result.MatchAnalysis != nil {
		d.MatchScore = result.MatchAnalysis.OverallMatchScore
	}
	for _, sec := range result.Sections {
		d.Sections = append(d.Sections, generatedcvs.SectionDraft{
			Name:          sec.Name,
			OriginalText:  sec.ReferenceSection,
			SuggestedText: sec.TailoredSection,
			Rationale:     sec.Rationale,
		})
	}
	return d
}

func (s *Service) profile(ctx context.Context, userID string) llm.Profile {
	if s.Profiles == nil {
		return profiles.Default(userID).LLM()
	}
	p, err := s.Profiles.Get(ctx, userID)
	if err != nil {
		return profiles.Default(userID).LLM()
	}
	return p.LLM()
}
