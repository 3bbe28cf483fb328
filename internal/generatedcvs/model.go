package generatedcvs

import (
	"strings"
	"time"
)

// DocumentStatus is the aggregate review status of a generated CV.
type DocumentStatus string

const (
	StatusPending  DocumentStatus = "pending"
	StatusInReview DocumentStatus = "in_review"
	StatusApproved DocumentStatus = "approved"
	StatusRejected DocumentStatus = "rejected"
)

// SectionStatus is the review status of one section.
type SectionStatus string

const (
	SectionPending  SectionStatus = "pending"
	SectionApproved SectionStatus = "approved"
	SectionRejected SectionStatus = "rejected"
)

// Document is one tailored CV produced for a (reference CV, job) pair.
type Document struct {
	ID                string         `json:"id"`
	UserID            string         `json:"-"`
	CVID              string         `json:"cvId"`
	JobID             string         `json:"jobId"`
	TailoredText      string         `json:"tailoredText"`
	OptimizationNotes string         `json:"optimizationNotes,omitempty"`
	MatchScore        *float64       `json:"matchScore,omitempty"`
	Status            DocumentStatus `json:"status"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// Section is one named, reviewable part of a Document.
// FinalText is non-nil iff Status is approved.
type Section struct {
	ID            string        `json:"id"`
	UserID        string        `json:"-"`
	DocumentID    string        `json:"generatedCvId"`
	Name          string        `json:"sectionName"`
	OriginalText  string        `json:"originalText"`
	SuggestedText string        `json:"suggestedText"`
	FinalText     *string       `json:"finalText,omitempty"`
	Rationale     string        `json:"rationale,omitempty"`
	Status        SectionStatus `json:"status"`
	Ordering      int           `json:"ordering"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// EffectiveText is the text a reader sees for the section in its current state.
func (s Section) EffectiveText() string {
	switch s.Status {
	case SectionApproved:
		if s.FinalText != nil {
			return *s.FinalText
		}
		return s.SuggestedText
	case SectionRejected:
		return s.OriginalText
	default:
		return s.SuggestedText
	}
}

// exportText is the section body used by renderers.
func (s Section) exportText() string {
	if s.FinalText != nil {
		return strings.TrimSpace(*s.FinalText)
	}
	return strings.TrimSpace(s.SuggestedText)
}

// Aggregate derives a document status from its sections' statuses.
// An empty set is approved.
func Aggregate(statuses []SectionStatus) DocumentStatus {
	allApproved := true
	anyRejected := false
	for _, st := range statuses {
		if st != SectionApproved {
			allApproved = false
		}
		if st == SectionRejected {
			anyRejected = true
		}
	}
	switch {
	case allApproved:
		return StatusApproved
	case anyRejected:
		return StatusRejected
	default:
		return StatusInReview
	}
}

// CanExport reports whether a document may be exported: either it has no
// sections, or every section and the document itself are approved.
func CanExport(doc Document, sections []Section) bool {
	if len(sections) == 0 {
		return true
	}
	for _, s := range sections {
		if s.Status != SectionApproved {
			return false
		}
	}
	return doc.Status == StatusApproved
}

// ExportLog is one append-only row of the export audit log.
type ExportLog struct {
	ID         string
	UserID     string
	DocumentID string
	Format     string
	Status     string
	Notes      string
	CreatedAt  time.Time
}

const (
	ExportCompleted = "completed"
	ExportFailed    = "failed"
)

func statuses(sections []Section) []SectionStatus {
	out := make([]SectionStatus, len(sections))
	for i, s := range sections {
		out[i] = s.Status
	}
	return out
}
