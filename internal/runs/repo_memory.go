package runs

import (
	"context"
	"sync"
)

// MemoryRepo keeps the ledger in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byUser map[string][]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byUser: make(map[string][]Record)}
}

// Insert appends a record.
func (r *MemoryRepo) Insert(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byUser[record.UserID] = append(r.byUser[record.UserID], record)
	return nil
}

// Stats aggregates matching records.
func (r *MemoryRepo) Stats(ctx context.Context, filter Filter) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out Stats
	for _, rec := range r.byUser[filter.UserID] {
		if rec.Type != filter.Type || rec.Status != filter.Status {
			continue
		}
		if rec.CreatedAt.Before(filter.Since) {
			continue
		}
		out.Count++
		if out.Earliest.IsZero() || rec.CreatedAt.Before(out.Earliest) {
			out.Earliest = rec.CreatedAt
		}
		if rec.CostUSD != nil {
			out.CostUSD += *rec.CostUSD
		}
	}
	return out, nil
}

// All returns a copy of a user's records in insertion order.
func (r *MemoryRepo) All(userID string) []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, len(r.byUser[userID]))
	copy(out, r.byUser[userID])
	return out
}

var _ Repo = (*MemoryRepo)(nil)
