package transaction

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// memRepository is an in-memory Repository keyed by the dedup natural key.
type memRepository struct {
	rows      map[string]*Transaction
	nextID    int64
	existsErr error
	createErr error
}

func newMemRepository() *memRepository {
	return &memRepository{rows: make(map[string]*Transaction), nextID: 1}
}

func naturalKey(accountID int64, date time.Time, amount decimal.Decimal, description string) string {
	return fmt.Sprintf("%d|%s|%s|%s", accountID, date.Format(DateLayout), amount.String(), description)
}

func (m *memRepository) Exists(ctx context.Context, accountID int64, date time.Time, amount decimal.Decimal, description string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.rows[naturalKey(accountID, date, amount, description)]
	return ok, nil
}

func (m *memRepository) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	tx := &Transaction{
		ID:          m.nextID,
		AccountID:   params.AccountID,
		Date:        params.Date,
		Amount:      params.Amount,
		Description: params.Description,
		Source:      params.Source,
	}
	m.nextID++
	m.rows[naturalKey(params.AccountID, params.Date, params.Amount, params.Description)] = tx
	return tx, nil
}

func (m *memRepository) ListRecent(ctx context.Context, limit int) ([]*WithAccount, error) {
	return nil, nil
}

func TestImport_DeduplicatesIdenticalRecords(t *testing.T) {
	repo := newMemRepository()
	importer := NewImporter(repo)

	records := []RawRecord{
		{Date: "2024-01-05", Amount: "-42.50", Purpose: "Rent"},
		{Date: "2024-01-05", Amount: "-42.50", Purpose: "Rent"},
	}

	res, err := importer.Import(context.Background(), 1, SourceFinTS, records)
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	if res.Inserted != 1 || res.Skipped != 1 || res.Failed != 0 {
		t.Errorf("result = %+v, want 1 inserted, 1 skipped", res)
	}
	if len(repo.rows) != 1 {
		t.Errorf("row count = %d, want 1", len(repo.rows))
	}
}

func TestImport_Idempotent(t *testing.T) {
	repo := newMemRepository()
	importer := NewImporter(repo)

	records := []RawRecord{
		{Date: "2024-01-05", Amount: "-42.50", Purpose: "Rent"},
		{Date: "2024-01-06", Amount: "1200.00", Purpose: "Gehalt", ApplicantName: "ACME GmbH"},
	}

	if _, err := importer.Import(context.Background(), 1, SourceFinTS, records); err != nil {
		t.Fatalf("first Import() failed: %v", err)
	}
	res, err := importer.Import(context.Background(), 1, SourceFinTS, records)
	if err != nil {
		t.Fatalf("second Import() failed: %v", err)
	}

	if res.Inserted != 0 || res.Skipped != 2 {
		t.Errorf("second run result = %+v, want everything skipped", res)
	}
	if len(repo.rows) != 2 {
		t.Errorf("row count = %d, want each unique key stored exactly once", len(repo.rows))
	}
}

func TestImport_NoAmountTolerance(t *testing.T) {
	repo := newMemRepository()
	importer := NewImporter(repo)

	records := []RawRecord{
		{Date: "2024-01-05", Amount: "10.00", Purpose: "Payment"},
		{Date: "2024-01-05", Amount: "10.001", Purpose: "Payment"},
	}

	res, err := importer.Import(context.Background(), 1, SourceFinTS, records)
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	if res.Inserted != 2 || res.Skipped != 0 {
		t.Errorf("result = %+v, want both amounts inserted (no rounding tolerance)", res)
	}
}

func TestImport_DescriptionShapesAreDistinct(t *testing.T) {
	repo := newMemRepository()
	importer := NewImporter(repo)

	// The rich shape joins in the applicant; the resulting key differs
	// from the plain shape even for the same purpose text.
	records := []RawRecord{
		{Date: "2024-01-05", Amount: "10.00", Purpose: "Payment"},
		{Date: "2024-01-05", Amount: "10.00", Purpose: "Payment", ApplicantName: "ACME"},
	}

	res, err := importer.Import(context.Background(), 1, SourceFinTS, records)
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if res.Inserted != 2 {
		t.Errorf("Inserted = %d, want 2", res.Inserted)
	}
}

func TestImport_BadRecordDoesNotAbortBatch(t *testing.T) {
	repo := newMemRepository()
	importer := NewImporter(repo)

	records := []RawRecord{
		{Date: "", Amount: "10.00", Purpose: "no date"},
		{Date: "2024-01-05", Amount: "10.00", Purpose: "fine"},
	}

	res, err := importer.Import(context.Background(), 1, SourceFinTS, records)
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	if res.Failed != 1 || res.Inserted != 1 {
		t.Errorf("result = %+v, want 1 failed and 1 inserted", res)
	}
}

func TestImport_InsertErrorCountedAndContinues(t *testing.T) {
	repo := newMemRepository()
	repo.createErr = errors.New("value too long for column")
	importer := NewImporter(repo)

	records := []RawRecord{
		{Date: "2024-01-05", Amount: "10.00", Purpose: "a"},
		{Date: "2024-01-06", Amount: "20.00", Purpose: "b"},
	}

	res, err := importer.Import(context.Background(), 1, SourceFinTS, records)
	if err != nil {
		t.Fatalf("Import() failed: %v", err)
	}
	if res.Failed != 2 || res.Inserted != 0 {
		t.Errorf("result = %+v, want both records counted as failed", res)
	}
}

func TestImport_DedupLookupErrorAbortsBatch(t *testing.T) {
	repo := newMemRepository()
	repo.existsErr = errors.New("connection refused")
	importer := NewImporter(repo)

	records := []RawRecord{{Date: "2024-01-05", Amount: "10.00", Purpose: "x"}}

	_, err := importer.Import(context.Background(), 1, SourceFinTS, records)
	if err == nil {
		t.Fatal("Import() expected batch-level error when the store is unreachable, got nil")
	}
}

func TestImport_SourceTagStored(t *testing.T) {
	repo := newMemRepository()
	importer := NewImporter(repo)

	records := []RawRecord{{Date: "2024-01-05", Amount: "10.00", Purpose: "Beleg"}}
	if _, err := importer.Import(context.Background(), 1, SourcePDF, records); err != nil {
		t.Fatalf("Import() failed: %v", err)
	}

	for _, tx := range repo.rows {
		if tx.Source != SourcePDF {
			t.Errorf("source = %q, want %q", tx.Source, SourcePDF)
		}
	}
}
