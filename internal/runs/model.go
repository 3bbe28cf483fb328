package runs

import "time"

// Type identifies the quota-consuming operation a run belongs to.
type Type string

const (
	TypeGeneration   Type = "generation"
	TypeOptimization Type = "optimization"
)

// Status is the outcome of one attempted run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Record is one immutable ledger row for an attempted LLM call.
type Record struct {
	ID           string
	UserID       string
	Type         Type
	Status       Status
	Provider     string
	Model        string
	TokensInput  *int
	TokensOutput *int
	CostUSD      *float64
	Metadata     map[string]any
	CreatedAt    time.Time
}

// Filter scopes a ledger aggregate to one user, run type and status since an instant.
type Filter struct {
	UserID string
	Type   Type
	Status Status
	Since  time.Time
}

// Stats aggregates the rows matched by a Filter.
// Earliest is zero when Count is zero.
type Stats struct {
	Count    int
	Earliest time.Time
	CostUSD  float64
}
