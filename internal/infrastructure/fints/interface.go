package fints

import (
	"context"
	"time"

	"finanzen/internal/domain/transaction"
)

// ClientInterface defines the methods required from the FinTS bridge client
type ClientInterface interface {
	FetchTransactions(ctx context.Context, creds Credentials, since time.Time) ([]transaction.RawRecord, error)
	FetchBalance(ctx context.Context, creds Credentials) (*Balance, error)
}
