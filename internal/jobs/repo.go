package jobs

import "context"

// Repo defines persistence operations for job descriptions.
type Repo interface {
	Create(ctx context.Context, job JobDescription) error
	Count(ctx context.Context, userID string) (int, error)
	List(ctx context.Context, userID string) ([]JobDescription, error)
	Delete(ctx context.Context, userID, id string) error
	// GetMany returns the user's jobs among ids. Unknown ids are skipped.
	GetMany(ctx context.Context, userID string, ids []string) ([]JobDescription, error)
}
