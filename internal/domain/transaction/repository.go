package transaction

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for transaction data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// Exists reports whether a row with the identical natural key is
	// already stored. The match is exact on all four fields.
	Exists(ctx context.Context, accountID int64, date time.Time, amount decimal.Decimal, description string) (bool, error)

	// Create inserts a new transaction row.
	Create(ctx context.Context, params CreateParams) (*Transaction, error)

	// ListRecent returns the newest transactions joined with their
	// account names.
	ListRecent(ctx context.Context, limit int) ([]*WithAccount, error)
}
