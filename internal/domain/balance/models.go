package balance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the balance of one account on one day. At most one snapshot
// per (account, date) is kept; a later fetch on the same day overwrites it.
type Snapshot struct {
	ID        int64
	AccountID int64
	Date      time.Time
	Amount    decimal.Decimal
	Currency  string
	FetchedAt time.Time
}
