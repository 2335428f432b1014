package document

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Domain errors
var (
	ErrNoText = errors.New("document has no extractable text")
)

// Document is one scanned payment document. Amount and Date stay nil when
// the extraction patterns found nothing; the raw text is always kept for
// audit.
type Document struct {
	ID         int64
	Filename   string
	RawText    string
	Subject    string
	Amount     *decimal.Decimal
	Date       *time.Time
	ImportedAt time.Time
}

// CreateParams contains the column values for a new document row.
type CreateParams struct {
	Filename string
	RawText  string
	Subject  string
	Amount   *decimal.Decimal
	Date     *time.Time
}

// Repository defines the interface for document data access
type Repository interface {
	// Create inserts a new document row.
	Create(ctx context.Context, params CreateParams) (*Document, error)
}
