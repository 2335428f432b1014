package transaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Source tags identify which ingestion path produced a transaction.
const (
	SourceFinTS = "fints"
	SourcePDF   = "pdf"
)

// DateLayout is the canonical wire format for record dates.
const DateLayout = "2006-01-02"

// dateLayoutGerman is accepted as a fallback because bank exports and
// scanned statements carry DD.MM.YYYY dates.
const dateLayoutGerman = "02.01.2006"

// descriptionSeparator joins the purpose text with the counterparty name
// when the richer record shape supplies one. Part of the dedup natural
// key, so it must never change.
const descriptionSeparator = " | "

// Domain errors
var (
	ErrMissingDate        = errors.New("record has no date")
	ErrMissingAmount      = errors.New("record has no amount")
	ErrMissingDescription = errors.New("record has no description")
)

// Transaction is a persisted booking. Rows are immutable once inserted;
// the natural key for deduplication is (account, date, amount,
// description), matched exactly.
type Transaction struct {
	ID          int64
	AccountID   int64
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Source      string
	CreatedAt   time.Time
}

// RawRecord is one record as delivered by a record source. The FinTS
// path fills the applicant fields; the document path only carries date,
// amount and purpose. Both shapes converge on the same natural key
// through Normalize.
type RawRecord struct {
	Date          string `json:"date"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Purpose       string `json:"purpose"`
	ApplicantName string `json:"applicant_name"`
	ApplicantIBAN string `json:"applicant_iban"`
	Reference     string `json:"reference"`
	Raw           string `json:"raw_data"`
}

// Normalize converts the raw record into the canonical column values.
// A missing date, amount or description fails the record.
func (r *RawRecord) Normalize() (date time.Time, amount decimal.Decimal, description string, err error) {
	if r.Date == "" {
		return time.Time{}, decimal.Decimal{}, "", ErrMissingDate
	}
	date, err = parseDate(r.Date)
	if err != nil {
		return time.Time{}, decimal.Decimal{}, "", fmt.Errorf("unparseable date %q: %w", r.Date, err)
	}

	if r.Amount == "" {
		return time.Time{}, decimal.Decimal{}, "", ErrMissingAmount
	}
	amount, err = decimal.NewFromString(r.Amount)
	if err != nil {
		return time.Time{}, decimal.Decimal{}, "", fmt.Errorf("unparseable amount %q: %w", r.Amount, err)
	}

	description = r.Purpose
	if r.ApplicantName != "" {
		description = r.Purpose + descriptionSeparator + r.ApplicantName
	}
	if description == "" {
		return time.Time{}, decimal.Decimal{}, "", ErrMissingDescription
	}

	return date, amount, description, nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err == nil {
		return t, nil
	}
	return time.Parse(dateLayoutGerman, s)
}

// CreateParams contains the column values for a new transaction row.
type CreateParams struct {
	AccountID   int64
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	Source      string
}

// WithAccount is a transaction joined with its account name, used by the
// admin CLI listing.
type WithAccount struct {
	Transaction
	AccountName string
}
