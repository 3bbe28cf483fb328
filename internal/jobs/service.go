package jobs

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxStored         = 20
	MaxLabelLength    = 150
	MinTextLength     = 80
	MaxTextLength     = 8000
	MaxBatchSelection = 5
)

// Input is a job description as submitted by the user.
type Input struct {
	Title   string
	Company string
	Text    string
}

// Service contains job description logic.
type Service struct {
	Repo  Repo
	Now   func() time.Time
	NewID func() string
}

// Create validates and stores a job description.
func (s *Service) Create(ctx context.Context, userID string, in Input) (JobDescription, error) {
	if userID == "" {
		return JobDescription{}, ErrInvalidInput
	}
	title := strings.TrimSpace(in.Title)
	company := strings.TrimSpace(in.Company)
	text := strings.TrimSpace(in.Text)
	if utf8.RuneCountInString(title) > MaxLabelLength || utf8.RuneCountInString(company) > MaxLabelLength {
		return JobDescription{}, invalid("Title and company must be 150 characters or fewer.")
	}
	if n := utf8.RuneCountInString(text); n < MinTextLength {
		return JobDescription{}, invalid("Job description must be at least 80 characters.")
	} else if n > MaxTextLength {
		return JobDescription{}, invalid("Job description must be 8000 characters or fewer.")
	}

	count, err := s.Repo.Count(ctx, userID)
	if err != nil {
		return JobDescription{}, err
	}
	if count >= MaxStored {
		return JobDescription{}, ErrLimitReached
	}

	job := JobDescription{
		ID:          s.newID(),
		UserID:      userID,
		Title:       title,
		Company:     company,
		TextContent: text,
		CreatedAt:   s.now(),
	}
	if err := s.Repo.Create(ctx, job); err != nil {
		return JobDescription{}, err
	}
	return job, nil
}

// List returns the user's job descriptions, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]JobDescription, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.List(ctx, userID)
}

// Delete removes one of the user's job descriptions.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if userID == "" || id == "" {
		return ErrInvalidInput
	}
	return s.Repo.Delete(ctx, userID, id)
}

// NormalizeSelection trims and dedupes a batch selection and enforces its size.
func NormalizeSelection(ids []string) ([]string, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, invalid("Select at least one job description.")
	}
	if len(unique) > MaxBatchSelection {
		return nil, invalid("Select up to 5 job descriptions.")
	}
	return unique, nil
}

// Select resolves a batch selection to the user's jobs in request order.
// Duplicate and unknown ids are dropped. ErrNotFound when nothing resolves.
func (s *Service) Select(ctx context.Context, userID string, ids []string) ([]JobDescription, error) {
	unique, err := NormalizeSelection(ids)
	if err != nil {
		return nil, err
	}
	found, err := s.Repo.GetMany(ctx, userID, unique)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	return found, nil
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
