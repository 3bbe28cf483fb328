package llm

import (
	"context"
	"errors"
)

// Client abstracts the model provider used for CV optimization and tailoring.
type Client interface {
	OptimizeCV(ctx context.Context, input OptimizeInput) (OptimizeResult, Usage, error)
	TailorCV(ctx context.Context, input TailorInput) (TailorResult, Usage, error)
}

// Profile is the candidate context sent with every request. Empty fields render as N/A.
type Profile struct {
	FullName            string
	JobTitle            string
	ProfessionalSummary string
	Industry            string
	EmbellishmentLevel  int
}

// OptimizeInput captures the inputs for optimizing a reference CV.
type OptimizeInput struct {
	CVText             string
	Profile            Profile
	EmbellishmentLevel int
}

// TailorInput captures the inputs for tailoring a CV to one job description.
type TailorInput struct {
	BaseCV             string
	JobTitle           string
	Company            string
	JobDescription     string
	Profile            Profile
	EmbellishmentLevel int
}

// Usage is the token accounting reported by the provider. Nil counts mean unreported.
type Usage struct {
	PromptTokens     *int
	CompletionTokens *int
	PromptHash       string
}

var (
	// ErrSchemaMismatch wraps any model output that does not match the expected shape.
	ErrSchemaMismatch = errors.New("model output does not match schema")
	// ErrNotImplemented is returned by the placeholder client.
	ErrNotImplemented = errors.New("LLM not implemented")
)

// PlaceholderClient is used when no provider is configured.
type PlaceholderClient struct{}

// OptimizeCV returns ErrNotImplemented.
func (PlaceholderClient) OptimizeCV(ctx context.Context, input OptimizeInput) (OptimizeResult, Usage, error) {
	return OptimizeResult{}, Usage{}, ErrNotImplemented
}

// TailorCV returns ErrNotImplemented.
func (PlaceholderClient) TailorCV(ctx context.Context, input TailorInput) (TailorResult, Usage, error) {
	return TailorResult{}, Usage{}, ErrNotImplemented
}

var _ Client = PlaceholderClient{}
