package profiles

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

// Update is the set of editable profile fields. Zero levels take defaults.
type Update struct {
	FullName            string
	JobTitle            string
	ProfessionalSummary string
	Industry            string
	EmbellishmentLevel  int
	DataRetentionDays   int
}

// Service contains profile business logic.
type Service struct {
	Repo Repo
	Now  func() time.Time
}

// Get returns the stored profile, or the defaults when none exists.
func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	if userID == "" {
		return Profile{}, ErrInvalidInput
	}
	p, err := s.Repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Default(userID), nil
	}
	return p, err
}

// Save validates and stores the profile.
func (s *Service) Save(ctx context.Context, userID string, in Update) (Profile, error) {
	if userID == "" {
		return Profile{}, ErrInvalidInput
	}
	in.FullName = strings.TrimSpace(in.FullName)
	in.JobTitle = strings.TrimSpace(in.JobTitle)
	in.ProfessionalSummary = strings.TrimSpace(in.ProfessionalSummary)
	in.Industry = strings.TrimSpace(in.Industry)
	if in.EmbellishmentLevel == 0 {
		in.EmbellishmentLevel = DefaultEmbellishmentLevel
	}
	if in.DataRetentionDays == 0 {
		in.DataRetentionDays = DefaultDataRetentionDays
	}
	if err := validateUpdate(in); err != nil {
		return Profile{}, err
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	p := Profile{
		UserID:              userID,
		FullName:            in.FullName,
		JobTitle:            in.JobTitle,
		ProfessionalSummary: in.ProfessionalSummary,
		Industry:            in.Industry,
		EmbellishmentLevel:  in.EmbellishmentLevel,
		DataRetentionDays:   in.DataRetentionDays,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.Repo.Upsert(ctx, p); err != nil {
		return Profile{}, err
	}
	return s.Repo.Get(ctx, userID)
}

func validateUpdate(in Update) error {
	switch {
	case utf8.RuneCountInString(in.FullName) > 200:
		return invalid("Full name must be 200 characters or fewer.")
	case utf8.RuneCountInString(in.JobTitle) > 200:
		return invalid("Job title must be 200 characters or fewer.")
	case utf8.RuneCountInString(in.ProfessionalSummary) > 2000:
		return invalid("Professional summary must be 2000 characters or fewer.")
	case utf8.RuneCountInString(in.Industry) > 120:
		return invalid("Industry must be 120 characters or fewer.")
	case in.EmbellishmentLevel < 1 || in.EmbellishmentLevel > 5:
		return invalid("Embellishment level must be between 1 and 5.")
	case in.DataRetentionDays < 7 || in.DataRetentionDays > 365:
		return invalid("Data retention must be between 7 and 365 days.")
	}
	return nil
}
