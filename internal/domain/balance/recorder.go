package balance

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// Recorder stores one balance snapshot per account and day.
type Recorder struct {
	repo Repository
	now  func() time.Time
}

// NewRecorder creates a new balance recorder
func NewRecorder(repo Repository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record stores today's balance for the account.
func (r *Recorder) Record(ctx context.Context, accountID int64, amount decimal.Decimal, currency string) error {
	if currency == "" {
		currency = "EUR"
	}

	today := r.now().Truncate(24 * time.Hour)
	snap, err := r.repo.Upsert(ctx, accountID, today, amount, currency)
	if err != nil {
		return fmt.Errorf("failed to store balance snapshot: %w", err)
	}
	log.Printf("Balance for account %d: %s %s", accountID, snap.Amount, snap.Currency)

	return nil
}
