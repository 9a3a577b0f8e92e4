package repositories

import "context"

// UnitOfWork executes a function within a single database transaction.
// Repositories called with the derived context participate in that
// transaction.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
