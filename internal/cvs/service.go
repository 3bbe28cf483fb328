package cvs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/antonpme/CV-Optimizer/internal/llm"
	"github.com/antonpme/CV-Optimizer/internal/profiles"
	"github.com/antonpme/CV-Optimizer/internal/runs"
	"github.com/antonpme/CV-Optimizer/internal/usage"
)

const (
	maxTitleLength = 120
	maxTextLength  = 50000
	defaultTitle   = "Pasted CV"
)

// Gate admits quota-consuming actions.
type Gate interface {
	Admit(ctx context.Context, userID string, runType runs.Type, pending int) usage.Admission
}

// ProfileReader loads the candidate profile.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (profiles.Profile, error)
}

// RunRecorder writes run ledger entries.
type RunRecorder interface {
	Record(ctx context.Context, entry runs.Entry)
}

// Service contains CV library and optimization logic.
type Service struct {
	Repo     Repo
	Profiles ProfileReader
	Gate     Gate
	LLM      llm.Client
	Runs     RunRecorder
	Now      func() time.Time
	NewID    func() string
}

// Create stores a pasted CV. The user's first CV becomes the reference.
func (s *Service) Create(ctx context.Context, userID, title, text string) (CV, error) {
	if userID == "" {
		return CV{}, ErrInvalidInput
	}
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) > maxTitleLength {
		return CV{}, invalid("Title must be 120 characters or fewer.")
	}
	if title == "" {
		title = defaultTitle
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return CV{}, invalid("Paste your CV text.")
	}
	if utf8.RuneCountInString(text) > maxTextLength {
		return CV{}, invalid("CV text must be 50000 characters or fewer.")
	}

	_, err := s.Repo.Reference(ctx, userID)
	hasReference := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		return CV{}, err
	}

	now := s.now()
	cv := CV{
		ID:          s.newID(),
		UserID:      userID,
		Title:       title,
		TextContent: text,
		IsReference: !hasReference,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, cv); err != nil {
		return CV{}, err
	}
	return cv, nil
}

// List returns the user's CVs, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]CV, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.List(ctx, userID)
}

// SetReference makes cvID the user's only reference CV.
func (s *Service) SetReference(ctx context.Context, userID, cvID string) error {
	if userID == "" || cvID == "" {
		return ErrInvalidInput
	}
	return s.Repo.SetReference(ctx, userID, cvID)
}

// Optimize runs the admission gate, asks the model to optimize the reference CV
// and stores the result. Every model call writes exactly one ledger row.
func (s *Service) Optimize(ctx context.Context, userID, cvID string, level int) (OptimizedCV, error) {
	if userID == "" || cvID == "" {
		return OptimizedCV{}, ErrInvalidInput
	}
	cv, err := s.Repo.Get(ctx, userID, cvID)
	if err != nil {
		return OptimizedCV{}, err
	}
	if !cv.IsReference {
		return OptimizedCV{}, invalid("Only the reference CV can be optimised.")
	}

	if err := s.Gate.Admit(ctx, userID, runs.TypeOptimization, 1).Err(); err != nil {
		return OptimizedCV{}, err
	}

	profile := s.profile(ctx, userID)
	if level == 0 {
		level = profile.EmbellishmentLevel
	}
	if level < 1 || level > 5 {
		level = profiles.DefaultEmbellishmentLevel
	}

	result, tokens, err := s.LLM.OptimizeCV(ctx, llm.OptimizeInput{
		CVText:             cv.TextContent,
		Profile:            profile.LLM(),
		EmbellishmentLevel: level,
	})
	if err != nil {
		s.recordFailure(ctx, userID, cv.ID, tokens, err)
		return OptimizedCV{}, fmt.Errorf("%w: %v", ErrOptimizationFailed, err)
	}

	opt := OptimizedCV{
		ID:                 s.newID(),
		UserID:             userID,
		CVID:               cv.ID,
		OptimizedText:      result.OptimizedCV,
		ChangesSummary:     result.ChangesSummary,
		OverallConfidence:  result.OverallConfidence,
		Recommendations:    result.Recommendations,
		EmbellishmentLevel: level,
		CreatedAt:          s.now(),
	}
	if err := s.Repo.InsertOptimized(ctx, opt); err != nil {
		s.recordFailure(ctx, userID, cv.ID, tokens, err)
		return OptimizedCV{}, fmt.Errorf("%w: %v", ErrOptimizationFailed, err)
	}

	s.Runs.Record(ctx, runs.Entry{
		UserID:       userID,
		Type:         runs.TypeOptimization,
		Status:       runs.StatusSuccess,
		TokensInput:  tokens.PromptTokens,
		TokensOutput: tokens.CompletionTokens,
		Metadata: map[string]any{
			"cv_id":               cv.ID,
			"embellishment_level": level,
			"prompt_hash":         tokens.PromptHash,
		},
	})
	return opt, nil
}

// Base is the text tailored generation starts from.
type Base struct {
	CV   CV
	Text string
}

// TailoringBase returns the reference CV and its latest optimized text, falling
// back to the reference text. ErrNotFound when the user has no reference CV.
func (s *Service) TailoringBase(ctx context.Context, userID string) (Base, error) {
	ref, err := s.Repo.Reference(ctx, userID)
	if err != nil {
		return Base{}, err
	}
	base := Base{CV: ref, Text: ref.TextContent}
	opt, err := s.Repo.LatestOptimized(ctx, userID, ref.ID)
	switch {
	case err == nil && strings.TrimSpace(opt.OptimizedText) != "":
		base.Text = opt.OptimizedText
	case err != nil && !errors.Is(err, ErrNotFound):
		return Base{}, err
	}
	return base, nil
}

func (s *Service) recordFailure(ctx context.Context, userID, cvID string, tokens llm.Usage, cause error) {
	s.Runs.Record(ctx, runs.Entry{
		UserID:       userID,
		Type:         runs.TypeOptimization,
		Status:       runs.StatusFailed,
		TokensInput:  tokens.PromptTokens,
		TokensOutput: tokens.CompletionTokens,
		Metadata: map[string]any{
			"cv_id": cvID,
			"error": cause.Error(),
		},
	})
}

func (s *Service) profile(ctx context.Context, userID string) profiles.Profile {
	if s.Profiles == nil {
		return profiles.Default(userID)
	}
	p, err := s.Profiles.Get(ctx, userID)
	if err != nil {
		return profiles.Default(userID)
	}
	return p
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
