package document

import (
	"context"
	"fmt"
	"log"

	"finanzen/internal/domain/transaction"
)

// Importer stores scanned payment documents and, when enough fields were
// extracted, feeds them into the transaction importer as the
// plain-purpose record shape with source "pdf". The same dedup natural
// key applies, so re-importing a document is a no-op on the transaction
// side.
type Importer struct {
	docs Repository
	txs  *transaction.Importer
}

// NewImporter creates a new document importer
func NewImporter(docs Repository, txs *transaction.Importer) *Importer {
	return &Importer{docs: docs, txs: txs}
}

// ImportText stores the document row and derives a transaction when both
// amount and date were extracted. The transaction result is nil when the
// document did not yield one.
func (i *Importer) ImportText(ctx context.Context, accountID int64, filename, text string) (*Document, *transaction.Result, error) {
	parsed, err := Parse(text)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse document %q: %w", filename, err)
	}

	doc, err := i.docs.Create(ctx, CreateParams{
		Filename: filename,
		RawText:  text,
		Subject:  parsed.Subject,
		Amount:   parsed.Amount,
		Date:     parsed.Date,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to store document %q: %w", filename, err)
	}

	if parsed.Amount == nil || parsed.Date == nil {
		log.Printf("Document %q stored without transaction (amount or date missing)", filename)
		return doc, nil, nil
	}

	record := transaction.RawRecord{
		Date:    parsed.Date.Format(transaction.DateLayout),
		Amount:  parsed.Amount.String(),
		Purpose: parsed.Subject,
		Raw:     text,
	}
	res, err := i.txs.Import(ctx, accountID, transaction.SourcePDF, []transaction.RawRecord{record})
	if err != nil {
		return doc, nil, err
	}

	return doc, res, nil
}
