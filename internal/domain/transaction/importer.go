package transaction

import (
	"context"
	"fmt"
	"log"
)

// Result contains the counters of one import batch. Skipped rows are
// normal duplicates, not errors; Failed counts records that could not be
// normalized or stored.
type Result struct {
	Inserted int
	Skipped  int
	Failed   int
}

// Importer persists raw records as transactions, inserting only records
// whose natural key (account, date, amount, description) has not been
// seen before. A batch keeps going past individual bad records; only a
// failing dedup lookup aborts it, because then the store itself is
// unreachable and every further record would fail the same way.
type Importer struct {
	repo Repository
}

// NewImporter creates a new transaction importer
func NewImporter(repo Repository) *Importer {
	return &Importer{repo: repo}
}

// Import runs the batch for one account. The source tag is stored
// verbatim on every inserted row.
func (i *Importer) Import(ctx context.Context, accountID int64, source string, records []RawRecord) (*Result, error) {
	res := &Result{}

	for idx := range records {
		rec := &records[idx]

		date, amount, description, err := rec.Normalize()
		if err != nil {
			log.Printf("Record %d failed normalization: %v", idx, err)
			res.Failed++
			continue
		}

		exists, err := i.repo.Exists(ctx, accountID, date, amount, description)
		if err != nil {
			return res, fmt.Errorf("failed to check for duplicate transaction: %w", err)
		}
		if exists {
			res.Skipped++
			continue
		}

		_, err = i.repo.Create(ctx, CreateParams{
			AccountID:   accountID,
			Date:        date,
			Amount:      amount,
			Description: description,
			Source:      source,
		})
		if err != nil {
			log.Printf("Failed to store transaction (%s, %s): %v", date.Format(DateLayout), amount, err)
			res.Failed++
			continue
		}
		res.Inserted++
	}

	log.Printf("Import for account %d finished: inserted=%d, skipped=%d, failed=%d",
		accountID, res.Inserted, res.Skipped, res.Failed)

	return res, nil
}
