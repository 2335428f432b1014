package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"finanzen/internal/domain/account"
)

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	q Querier
}

// NewAccountRepository creates a new PostgreSQL account repository
func NewAccountRepository(q Querier) *AccountRepository {
	return &AccountRepository{q: q}
}

// FindByIBAN retrieves an account by its IBAN, the natural key.
// Returns (nil, nil) when no row matches.
func (r *AccountRepository) FindByIBAN(ctx context.Context, iban string) (*account.Account, error) {
	query := `
		SELECT id, name, type, bank, iban, created_at
		FROM accounts
		WHERE iban = $1
	`

	var acc account.Account
	err := r.q.QueryRowContext(ctx, query, iban).Scan(
		&acc.ID, &acc.Name, &acc.Type, &acc.Bank, &acc.IBAN, &acc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by IBAN: %w", err)
	}

	return &acc, nil
}

// Create inserts a new account row from its configured spec.
func (r *AccountRepository) Create(ctx context.Context, spec account.Spec) (*account.Account, error) {
	query := `
		INSERT INTO accounts (name, type, bank, iban)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, type, bank, iban, created_at
	`

	var acc account.Account
	err := r.q.QueryRowContext(ctx, query, spec.Name, spec.Type, spec.Bank, spec.IBAN).Scan(
		&acc.ID, &acc.Name, &acc.Type, &acc.Bank, &acc.IBAN, &acc.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return nil, fmt.Errorf("IBAN %s: %w", spec.IBAN, account.ErrDuplicateIBAN)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &acc, nil
}

// ListWithStats returns all accounts with their transaction count and
// most recent transaction date.
func (r *AccountRepository) ListWithStats(ctx context.Context) ([]*account.Stats, error) {
	query := `
		SELECT a.id, a.name, a.type, a.bank, a.iban, a.created_at,
		       COUNT(t.id) AS transaction_count,
		       MAX(t.date) AS last_transaction
		FROM accounts a
		LEFT JOIN transactions t ON a.id = t.account_id
		GROUP BY a.id
		ORDER BY a.name
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var stats []*account.Stats
	for rows.Next() {
		var s account.Stats
		var last sql.NullTime

		err := rows.Scan(
			&s.ID, &s.Name, &s.Type, &s.Bank, &s.IBAN, &s.CreatedAt,
			&s.TransactionCount, &last,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		if last.Valid {
			s.LastTransaction = &last.Time
		}

		stats = append(stats, &s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}

	return stats, nil
}
