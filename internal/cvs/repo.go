package cvs

import "context"

// Repo defines persistence operations for CVs and their optimizations.
type Repo interface {
	Create(ctx context.Context, cv CV) error
	Get(ctx context.Context, userID, id string) (CV, error)
	List(ctx context.Context, userID string) ([]CV, error)
	Reference(ctx context.Context, userID string) (CV, error)
	SetReference(ctx context.Context, userID, id string) error
	InsertOptimized(ctx context.Context, opt OptimizedCV) error
	LatestOptimized(ctx context.Context, userID, cvID string) (OptimizedCV, error)
}
