package cvs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores CVs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	byID      map[string]CV
	optimized map[string][]OptimizedCV
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:      make(map[string]CV),
		optimized: make(map[string][]OptimizedCV),
	}
}

// Create stores the CV.
func (r *MemoryRepo) Create(ctx context.Context, cv CV) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cv.IsReference {
		for id, other := range r.byID {
			if other.UserID == cv.UserID && other.IsReference {
				other.IsReference = false
				r.byID[id] = other
			}
		}
	}
	r.byID[cv.ID] = cv
	return nil
}

// Get returns a CV owned by userID.
func (r *MemoryRepo) Get(ctx context.Context, userID, id string) (CV, error) {
	if err := ctx.Err(); err != nil {
		return CV{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cv, ok := r.byID[id]
	if !ok || cv.UserID != userID {
		return CV{}, ErrNotFound
	}
	return cv, nil
}

// List returns a user's CVs, newest first.
func (r *MemoryRepo) List(ctx context.Context, userID string) ([]CV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []CV{}
	for _, cv := range r.byID {
		if cv.UserID == userID {
			out = append(out, cv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Reference returns the user's reference CV.
func (r *MemoryRepo) Reference(ctx context.Context, userID string) (CV, error) {
	if err := ctx.Err(); err != nil {
		return CV{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cv := range r.byID {
		if cv.UserID == userID && cv.IsReference {
			return cv, nil
		}
	}
	return CV{}, ErrNotFound
}

// SetReference makes id the only reference CV of userID.
func (r *MemoryRepo) SetReference(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.byID[id]
	if !ok || target.UserID != userID {
		return ErrNotFound
	}
	now := time.Now().UTC()
	for cid, cv := range r.byID {
		if cv.UserID != userID {
			continue
		}
		want := cid == id
		if cv.IsReference != want {
			cv.IsReference = want
			cv.UpdatedAt = now
			r.byID[cid] = cv
		}
	}
	return nil
}

// InsertOptimized stores an optimization result.
func (r *MemoryRepo) InsertOptimized(ctx context.Context, opt OptimizedCV) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.optimized[opt.CVID] = append(r.optimized[opt.CVID], opt)
	return nil
}

// LatestOptimized returns the newest optimization of cvID.
func (r *MemoryRepo) LatestOptimized(ctx context.Context, userID, cvID string) (OptimizedCV, error) {
	if err := ctx.Err(); err != nil {
		return OptimizedCV{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest OptimizedCV
	found := false
	for _, opt := range r.optimized[cvID] {
		if opt.UserID != userID {
			continue
		}
		if !found || !opt.CreatedAt.Before(latest.CreatedAt) {
			latest = opt
			found = true
		}
	}
	if !found {
		return OptimizedCV{}, ErrNotFound
	}
	return latest, nil
}

var _ Repo = (*MemoryRepo)(nil)
