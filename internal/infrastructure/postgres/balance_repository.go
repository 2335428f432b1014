package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finanzen/internal/domain/balance"
)

// BalanceRepository implements the balance.Repository interface for PostgreSQL
type BalanceRepository struct {
	q Querier
}

// NewBalanceRepository creates a new PostgreSQL balance repository
func NewBalanceRepository(q Querier) *BalanceRepository {
	return &BalanceRepository{q: q}
}

// Upsert stores the balance snapshot for (accountID, date), replacing an
// earlier fetch from the same day.
func (r *BalanceRepository) Upsert(ctx context.Context, accountID int64, date time.Time, amount decimal.Decimal, currency string) (*balance.Snapshot, error) {
	query := `
		INSERT INTO balances (account_id, date, amount, currency)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, date)
		DO UPDATE SET
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			fetched_at = now()
		RETURNING id, account_id, date, amount, currency, fetched_at
	`

	var snap balance.Snapshot
	err := r.q.QueryRowContext(ctx, query, accountID, date, amount, currency).Scan(
		&snap.ID, &snap.AccountID, &snap.Date, &snap.Amount, &snap.Currency, &snap.FetchedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert balance snapshot: %w", err)
	}

	return &snap, nil
}
