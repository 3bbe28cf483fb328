package generatedcvs

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/antonpme/CV-Optimizer/internal/entitlements"
	"github.com/antonpme/CV-Optimizer/internal/jobs"
	"github.com/antonpme/CV-Optimizer/internal/shared/metrics"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

// MaxSectionLength bounds approved section text.
const MaxSectionLength = 16000

// Review actions.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// JobReader loads job descriptions for export headings.
type JobReader interface {
	GetMany(ctx context.Context, userID string, ids []string) ([]jobs.JobDescription, error)
}

// EntitlementResolver resolves a user's export permission.
type EntitlementResolver interface {
	Resolve(ctx context.Context, userID string) entitlements.Entitlement
}

// Service contains generated CV review and export logic.
type Service struct {
	Repo         Repo
	Jobs         JobReader
	Entitlements EntitlementResolver
	Now          func() time.Time
	NewID        func() string
}

// SectionDraft is one model-produced section awaiting storage.
type SectionDraft struct {
	Name          string
	OriginalText  string
	SuggestedText string
	Rationale     string
}

// Draft is a model-produced tailored CV awaiting storage.
type Draft struct {
	UserID            string
	CVID              string
	JobID             string
	TailoredText      string
	OptimizationNotes string
	MatchScore        *float64
	Sections          []SectionDraft
}

// Create stores a tailored CV in review together with all of its pending sections.
func (s *Service) Create(ctx context.Context, d Draft) (Document, []Section, error) {
	if d.UserID == "" || d.CVID == "" || d.JobID == "" {
		return Document{}, nil, ErrInvalidInput
	}
	if len(d.Sections) == 0 {
		return Document{}, nil, invalid("AI did not return section data for review.")
	}
	now := s.now()
	doc := Document{
		ID:                s.newID(),
		UserID:            d.UserID,
		CVID:              d.CVID,
		JobID:             d.JobID,
		TailoredText:      d.TailoredText,
		OptimizationNotes: d.OptimizationNotes,
		MatchScore:        d.MatchScore,
		Status:            StatusInReview,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	sections := make([]Section, len(d.Sections))
	for i, sd := range d.Sections {
		sections[i] = Section{
			ID:            s.newID(),
			UserID:        d.UserID,
			DocumentID:    doc.ID,
			Name:          sd.Name,
			OriginalText:  sd.OriginalText,
			SuggestedText: sd.SuggestedText,
			Rationale:     sd.Rationale,
			Status:        SectionPending,
			Ordering:      i,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
	}
	if err := s.Repo.CreateWithSections(ctx, doc, sections); err != nil {
		return Document{}, nil, err
	}
	return doc, sections, nil
}

// Get returns a document and its sections.
func (s *Service) Get(ctx context.Context, userID, id string) (Document, []Section, error) {
	if userID == "" || id == "" {
		return Document{}, nil, ErrInvalidInput
	}
	doc, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return Document{}, nil, err
	}
	sections, err := s.Repo.Sections(ctx, userID, id)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, sections, nil
}

// List returns a user's documents ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.List(ctx, userID, limit, offset)
}

// ReviewInput is a reviewer's decision on one section.
type ReviewInput struct {
	Action    string
	FinalText string
}

// ReviewResult reports the section after the transition and the recomputed document status.
type ReviewResult struct {
	Section        Section        `json:"section"`
	DocumentStatus DocumentStatus `json:"documentStatus"`
	Message        string         `json:"message"`
}

// Review applies an approve or reject transition to a section and recomputes the
// owning document's aggregate status from all of its sections.
func (s *Service) Review(ctx context.Context, userID, sectionID string, in ReviewInput) (ReviewResult, error) {
	if userID == "" || sectionID == "" {
		return ReviewResult{}, ErrInvalidInput
	}
	action := strings.ToLower(strings.TrimSpace(in.Action))
	if action != ActionApprove && action != ActionReject {
		return ReviewResult{}, invalid("Invalid section update.")
	}

	var finalText string
	if action == ActionApprove {
		finalText = strings.TrimSpace(in.FinalText)
		if finalText == "" {
			return ReviewResult{}, invalid("Please review the text before approving this section.")
		}
		if utf8.RuneCountInString(finalText) > MaxSectionLength {
			return ReviewResult{}, invalid("Section is too long for export. Please condense the text.")
		}
	}

	section, err := s.Repo.Section(ctx, userID, sectionID)
	if err != nil {
		return ReviewResult{}, err
	}

	now := s.now()
	section.UpdatedAt = now
	if action == ActionApprove {
		section.Status = SectionApproved
		section.FinalText = &finalText
	} else {
		section.Status = SectionRejected
		section.FinalText = nil
	}
	if err := s.Repo.UpdateSection(ctx, section); err != nil {
		return ReviewResult{}, err
	}
	metrics.IncSectionReview(action)

	siblings, err := s.Repo.Sections(ctx, userID, section.DocumentID)
	if err != nil {
		return ReviewResult{}, err
	}
	status := Aggregate(statuses(siblings))
	if err := s.Repo.UpdateStatus(ctx, userID, section.DocumentID, status, now); err != nil {
		return ReviewResult{}, err
	}

	telemetry.Info("generated.section_reviewed", map[string]any{
		"user_id":         userID,
		"section_id":      section.ID,
		"generated_cv_id": section.DocumentID,
		"action":          action,
		"document_status": string(status),
	})

	msg := "Section approved."
	if action == ActionReject {
		msg = "Section rejected."
	}
	return ReviewResult{Section: section, DocumentStatus: status, Message: msg}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
