package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finanzen/internal/domain/transaction"
)

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	q Querier
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(q Querier) *TransactionRepository {
	return &TransactionRepository{q: q}
}

// Exists checks for a row with the identical natural key. NUMERIC keeps
// the stored scale, so the amount comparison is exact to the digit.
func (r *TransactionRepository) Exists(ctx context.Context, accountID int64, date time.Time, amount decimal.Decimal, description string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE account_id = $1 AND date = $2 AND amount = $3 AND description = $4
		)
	`

	var exists bool
	err := r.q.QueryRowContext(ctx, query, accountID, date, amount, description).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction existence: %w", err)
	}

	return exists, nil
}

// Create inserts a new transaction row.
func (r *TransactionRepository) Create(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	query := `
		INSERT INTO transactions (account_id, date, amount, description, source)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, account_id, date, amount, description, source, created_at
	`

	var tx transaction.Transaction
	err := r.q.QueryRowContext(
		ctx, query,
		params.AccountID, params.Date, params.Amount, params.Description, params.Source,
	).Scan(
		&tx.ID, &tx.AccountID, &tx.Date, &tx.Amount, &tx.Description, &tx.Source, &tx.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return &tx, nil
}

// ListRecent returns the newest transactions joined with their account names.
func (r *TransactionRepository) ListRecent(ctx context.Context, limit int) ([]*transaction.WithAccount, error) {
	query := `
		SELECT t.id, t.account_id, t.date, t.amount, t.description, t.source, t.created_at,
		       a.name
		FROM transactions t
		JOIN accounts a ON t.account_id = a.id
		ORDER BY t.date DESC, t.created_at DESC
		LIMIT $1
	`

	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txs []*transaction.WithAccount
	for rows.Next() {
		var tx transaction.WithAccount
		err := rows.Scan(
			&tx.ID, &tx.AccountID, &tx.Date, &tx.Amount, &tx.Description, &tx.Source, &tx.CreatedAt,
			&tx.AccountName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, &tx)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return txs, nil
}
