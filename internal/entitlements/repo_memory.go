package entitlements

import (
	"context"
	"sync"
)

// MemoryRepo stores entitlements in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu     sync.RWMutex
	byUser map[string]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byUser: make(map[string]Record)}
}

// Get returns the row for userID or ErrNotFound.
func (r *MemoryRepo) Get(ctx context.Context, userID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.byUser[userID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Upsert inserts or replaces the row, keeping the original created_at.
func (r *MemoryRepo) Upsert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byUser[rec.UserID]; ok && !existing.CreatedAt.IsZero() {
		rec.CreatedAt = existing.CreatedAt
	}
	r.byUser[rec.UserID] = rec
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
