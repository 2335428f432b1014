package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"finanzen/internal/domain/document"
)

// DocumentRepository implements the document.Repository interface for PostgreSQL
type DocumentRepository struct {
	q Querier
}

// NewDocumentRepository creates a new PostgreSQL document repository
func NewDocumentRepository(q Querier) *DocumentRepository {
	return &DocumentRepository{q: q}
}

// Create inserts a new document row.
func (r *DocumentRepository) Create(ctx context.Context, params document.CreateParams) (*document.Document, error) {
	query := `
		INSERT INTO documents (filename, raw_text, subject, amount, date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, filename, raw_text, subject, amount, date, imported_at
	`

	var amountIn decimal.NullDecimal
	if params.Amount != nil {
		amountIn.Decimal = *params.Amount
		amountIn.Valid = true
	}
	var dateIn sql.NullTime
	if params.Date != nil {
		dateIn.Time = *params.Date
		dateIn.Valid = true
	}

	var doc document.Document
	var amountOut decimal.NullDecimal
	var dateOut sql.NullTime

	err := r.q.QueryRowContext(
		ctx, query,
		params.Filename, params.RawText, params.Subject, amountIn, dateIn,
	).Scan(
		&doc.ID, &doc.Filename, &doc.RawText, &doc.Subject, &amountOut, &dateOut, &doc.ImportedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	if amountOut.Valid {
		doc.Amount = &amountOut.Decimal
	}
	if dateOut.Valid {
		doc.Date = &dateOut.Time
	}

	return &doc, nil
}
