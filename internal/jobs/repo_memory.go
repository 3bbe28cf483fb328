package jobs

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo stores job descriptions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]JobDescription
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]JobDescription)}
}

// Create stores the job description.
func (r *MemoryRepo) Create(ctx context.Context, job JobDescription) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[job.ID] = job
	return nil
}

// Count returns how many job descriptions the user stores.
func (r *MemoryRepo) Count(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, job := range r.byID {
		if job.UserID == userID {
			n++
		}
	}
	return n, nil
}

// List returns the user's job descriptions, newest first.
func (r *MemoryRepo) List(ctx context.Context, userID string) ([]JobDescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []JobDescription{}
	for _, job := range r.byID {
		if job.UserID == userID {
			out = append(out, job)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a job description owned by userID.
func (r *MemoryRepo) Delete(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.byID[id]
	if !ok || job.UserID != userID {
		return ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// GetMany returns the user's jobs among ids.
func (r *MemoryRepo) GetMany(ctx context.Context, userID string, ids []string) ([]JobDescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []JobDescription{}
	for _, id := range ids {
		if job, ok := r.byID[id]; ok && job.UserID == userID {
			out = append(out, job)
		}
	}
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
