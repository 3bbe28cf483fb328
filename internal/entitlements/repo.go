package entitlements

import "context"

// Repo persists one entitlement row per user.
type Repo interface {
	Get(ctx context.Context, userID string) (Record, error)
	Upsert(ctx context.Context, rec Record) error
}
