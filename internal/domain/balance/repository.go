package balance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Repository defines the interface for balance snapshot data access
type Repository interface {
	// Upsert stores the balance for (accountID, date), replacing an
	// earlier snapshot from the same day.
	Upsert(ctx context.Context, accountID int64, date time.Time, amount decimal.Decimal, currency string) (*Snapshot, error)
}
