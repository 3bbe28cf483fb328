package runs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/antonpme/CV-Optimizer/internal/shared/metrics"
	"github.com/antonpme/CV-Optimizer/internal/shared/telemetry"
)

// DefaultProvider is recorded when an entry does not name one.
const DefaultProvider = "openai"

// Entry describes the outcome of one attempted operation.
type Entry struct {
	UserID       string
	Type         Type
	Status       Status
	Model        string
	TokensInput  *int
	TokensOutput *int
	Metadata     map[string]any
}

// Writer records run outcomes. Write failures are logged and swallowed so the
// caller's own result is never replaced by a ledger error.
type Writer struct {
	Repo     Repo
	Provider string
	Model    string
	Pricing  map[string]Price
	Now      func() time.Time
	NewID    func() string
}

// Record writes exactly one ledger row for the entry.
func (w *Writer) Record(ctx context.Context, entry Entry) {
	if w == nil || w.Repo == nil {
		return
	}
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	newID := uuid.NewString
	if w.NewID != nil {
		newID = w.NewID
	}
	provider := w.Provider
	if provider == "" {
		provider = DefaultProvider
	}
	model := entry.Model
	if model == "" {
		model = w.Model
	}
	pricing := w.Pricing
	if pricing == nil {
		pricing = DefaultPricing
	}

	record := Record{
		ID:           newID(),
		UserID:       entry.UserID,
		Type:         entry.Type,
		Status:       entry.Status,
		Provider:     provider,
		Model:        model,
		TokensInput:  entry.TokensInput,
		TokensOutput: entry.TokensOutput,
		CostUSD:      Cost(pricing, model, entry.TokensInput, entry.TokensOutput),
		Metadata:     entry.Metadata,
		CreatedAt:    now().UTC(),
	}
	if err := w.Repo.Insert(ctx, record); err != nil {
		metrics.IncLedgerWriteFailure(string(entry.Type))
		telemetry.Error("runs.record_failed", map[string]any{
			"user_id":  entry.UserID,
			"run_type": string(entry.Type),
			"status":   string(entry.Status),
			"error":    err.Error(),
		})
		return
	}
	metrics.IncRunRecorded(string(entry.Type), string(entry.Status))
}

// CostSummary is the month-to-date spend on successful runs.
type CostSummary struct {
	Total        float64 `json:"total"`
	Generation   float64 `json:"generation"`
	Optimization float64 `json:"optimization"`
}

// StatsReader is the read side of the ledger.
type StatsReader interface {
	Stats(ctx context.Context, filter Filter) (Stats, error)
}

// SummarizeCost sums successful run cost since the given instant, rounded to cents.
func SummarizeCost(ctx context.Context, repo StatsReader, userID string, since time.Time) (CostSummary, error) {
	gen, err := repo.Stats(ctx, Filter{UserID: userID, Type: TypeGeneration, Status: StatusSuccess, Since: since})
	if err != nil {
		return CostSummary{}, err
	}
	opt, err := repo.Stats(ctx, Filter{UserID: userID, Type: TypeOptimization, Status: StatusSuccess, Since: since})
	if err != nil {
		return CostSummary{}, err
	}
	return CostSummary{
		Total:        RoundCents(gen.CostUSD + opt.CostUSD),
		Generation:   RoundCents(gen.CostUSD),
		Optimization: RoundCents(opt.CostUSD),
	}, nil
}

// MonthStart returns the first instant of t's calendar month in UTC.
func MonthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// IntPtr is a small helper for optional token counts.
func IntPtr(v int) *int {
	return &v
}
