package sync

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finanzen/internal/domain/account"
	"finanzen/internal/domain/transaction"
	"finanzen/internal/infrastructure/fints"
	"finanzen/internal/shared/config"
)

// MockClient implements fints.ClientInterface for testing
type MockClient struct {
	FetchTransactionsFunc func(ctx context.Context, creds fints.Credentials, since time.Time) ([]transaction.RawRecord, error)
	FetchBalanceFunc      func(ctx context.Context, creds fints.Credentials) (*fints.Balance, error)
	fetchCalls            int
}

func (m *MockClient) FetchTransactions(ctx context.Context, creds fints.Credentials, since time.Time) ([]transaction.RawRecord, error) {
	m.fetchCalls++
	if m.FetchTransactionsFunc != nil {
		return m.FetchTransactionsFunc(ctx, creds, since)
	}
	return nil, nil
}

func (m *MockClient) FetchBalance(ctx context.Context, creds fints.Credentials) (*fints.Balance, error) {
	if m.FetchBalanceFunc != nil {
		return m.FetchBalanceFunc(ctx, creds)
	}
	return nil, errors.New("no balance")
}

func finTSSpec(name string) account.Spec {
	return account.Spec{
		Name:      name,
		IBAN:      "DE89370400440532013000",
		BLZ:       "10010010",
		LoginName: "tester",
		PIN:       "12345",
		Endpoint:  "https://banking.example.test/fints",
	}
}

func TestSyncAccount_MissingCredentials(t *testing.T) {
	client := &MockClient{}
	runner := NewRunner(nil, client, &config.Config{})

	spec := account.Spec{Name: "Sparbuch", IBAN: "DE89370400440532013000"}
	_, err := runner.SyncAccount(context.Background(), spec)
	if err == nil {
		t.Fatal("SyncAccount() expected error for account without FinTS credentials, got nil")
	}
	if client.fetchCalls != 0 {
		t.Errorf("fetchCalls = %d, want 0 when credentials are missing", client.fetchCalls)
	}
}

func TestSyncAccount_FetchFailure(t *testing.T) {
	client := &MockClient{
		FetchTransactionsFunc: func(ctx context.Context, creds fints.Credentials, since time.Time) ([]transaction.RawRecord, error) {
			return nil, errors.New("PIN locked")
		},
	}
	cfg := &config.Config{FinTS: config.FinTSConfig{DefaultDays: 30}}
	runner := NewRunner(nil, client, cfg)

	_, err := runner.SyncAccount(context.Background(), finTSSpec("Girokonto"))
	if err == nil {
		t.Fatal("SyncAccount() expected error when the bridge fails, got nil")
	}
	if !strings.Contains(err.Error(), "Girokonto") {
		t.Errorf("error %q should name the failing account", err)
	}
}

func TestSyncAccount_SinceWindow(t *testing.T) {
	var gotSince time.Time
	client := &MockClient{
		FetchTransactionsFunc: func(ctx context.Context, creds fints.Credentials, since time.Time) ([]transaction.RawRecord, error) {
			gotSince = since
			return nil, errors.New("stop here")
		},
	}
	cfg := &config.Config{FinTS: config.FinTSConfig{DefaultDays: 14}}
	runner := NewRunner(nil, client, cfg)

	runner.SyncAccount(context.Background(), finTSSpec("Girokonto"))

	want := time.Now().AddDate(0, 0, -14)
	if diff := gotSince.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("since = %v, want about %v", gotSince, want)
	}
}

func TestSyncAccount_CredentialsForwarded(t *testing.T) {
	var gotCreds fints.Credentials
	client := &MockClient{
		FetchTransactionsFunc: func(ctx context.Context, creds fints.Credentials, since time.Time) ([]transaction.RawRecord, error) {
			gotCreds = creds
			return nil, errors.New("stop here")
		},
	}
	cfg := &config.Config{FinTS: config.FinTSConfig{DefaultDays: 30}}
	runner := NewRunner(nil, client, cfg)

	spec := finTSSpec("Girokonto")
	runner.SyncAccount(context.Background(), spec)

	if gotCreds.BLZ != spec.BLZ || gotCreds.PIN != spec.PIN || gotCreds.IBAN != spec.IBAN {
		t.Errorf("credentials = %+v, want values from the account spec", gotCreds)
	}
}

func TestSyncAll_Disabled(t *testing.T) {
	client := &MockClient{}
	cfg := &config.Config{
		FinTS:    config.FinTSConfig{Enabled: false},
		Accounts: []account.Spec{finTSSpec("Girokonto")},
	}
	runner := NewRunner(nil, client, cfg)

	if err := runner.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll() failed: %v", err)
	}
	if client.fetchCalls != 0 {
		t.Errorf("fetchCalls = %d, want 0 with FinTS disabled", client.fetchCalls)
	}
}

func TestSyncAll_SkipsAccountsWithoutCredentials(t *testing.T) {
	client := &MockClient{}
	cfg := &config.Config{
		FinTS: config.FinTSConfig{Enabled: true, DefaultDays: 30},
		Accounts: []account.Spec{
			{Name: "Bargeld", IBAN: "DE00000000000000000000"},
		},
	}
	runner := NewRunner(nil, client, cfg)

	if err := runner.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll() failed: %v", err)
	}
	if client.fetchCalls != 0 {
		t.Errorf("fetchCalls = %d, want 0 for accounts without credentials", client.fetchCalls)
	}
}

func TestSyncAll_AllAccountsFailing(t *testing.T) {
	client := &MockClient{
		FetchTransactionsFunc: func(ctx context.Context, creds fints.Credentials, since time.Time) ([]transaction.RawRecord, error) {
			return nil, errors.New("bridge down")
		},
	}
	cfg := &config.Config{
		FinTS: config.FinTSConfig{Enabled: true, DefaultDays: 30},
		Accounts: []account.Spec{
			finTSSpec("Girokonto"),
			finTSSpec("Tagesgeld"),
		},
	}
	runner := NewRunner(nil, client, cfg)

	err := runner.SyncAll(context.Background())
	if err == nil {
		t.Fatal("SyncAll() expected error when every account fails, got nil")
	}
	if client.fetchCalls != 2 {
		t.Errorf("fetchCalls = %d, want 2 (one failing account must not stop the next)", client.fetchCalls)
	}
}

func TestSyncAll_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &MockClient{
		FetchTransactionsFunc: func(ctx context.Context, creds fints.Credentials, since time.Time) ([]transaction.RawRecord, error) {
			cancel()
			return nil, errors.New("interrupted")
		},
	}
	cfg := &config.Config{
		FinTS: config.FinTSConfig{Enabled: true, DefaultDays: 30},
		Accounts: []account.Spec{
			finTSSpec("Girokonto"),
			finTSSpec("Tagesgeld"),
		},
	}
	runner := NewRunner(nil, client, cfg)

	err := runner.SyncAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("SyncAll() error = %v, want context.Canceled", err)
	}
	if client.fetchCalls != 1 {
		t.Errorf("fetchCalls = %d, want 1 (cancellation stops the run)", client.fetchCalls)
	}
}
