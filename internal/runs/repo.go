package runs

import "context"

// Repo is the append-only run ledger store.
type Repo interface {
	Insert(ctx context.Context, record Record) error
	Stats(ctx context.Context, filter Filter) (Stats, error)
}
