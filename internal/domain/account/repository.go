package account

import "context"

// Repository defines the interface for account data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// FindByIBAN looks an account up by its natural key.
	// Returns (nil, nil) when no such account exists.
	FindByIBAN(ctx context.Context, iban string) (*Account, error)

	// Create inserts a new account from its configured spec.
	Create(ctx context.Context, spec Spec) (*Account, error)

	// ListWithStats returns all accounts with their transaction summary.
	ListWithStats(ctx context.Context) ([]*Stats, error)
}
