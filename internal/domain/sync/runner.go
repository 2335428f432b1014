package sync

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"finanzen/internal/domain/account"
	"finanzen/internal/domain/balance"
	"finanzen/internal/domain/category"
	"finanzen/internal/domain/transaction"
	"finanzen/internal/infrastructure/fints"
	"finanzen/internal/infrastructure/postgres"
	"finanzen/internal/shared/config"
)

var tracer = otel.Tracer("finanzen/sync")

// Runner drives the periodic ingestion: it reconciles the category trees
// and, per configured account, fetches bank data over the FinTS bridge
// and lands it in Postgres. Each account's writes happen in one
// transaction, so a crashed sync leaves no half-imported account behind.
type Runner struct {
	db     *postgres.DB
	client fints.ClientInterface
	cfg    *config.Config
}

// NewRunner creates a new sync runner
func NewRunner(db *postgres.DB, client fints.ClientInterface, cfg *config.Config) *Runner {
	return &Runner{db: db, client: client, cfg: cfg}
}

// ReconcileCategories merges both configured category trees into the
// database. Both trees commit together.
func (r *Runner) ReconcileCategories(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "sync.ReconcileCategories")
	defer span.End()

	err := r.db.WithinTx(ctx, func(q postgres.Querier) error {
		reconciler := category.NewReconciler(postgres.NewCategoryRepository(q))

		if _, err := reconciler.Reconcile(ctx, category.TypeIncome, r.cfg.Categories.Income); err != nil {
			return fmt.Errorf("income tree: %w", err)
		}
		if _, err := reconciler.Reconcile(ctx, category.TypeExpense, r.cfg.Categories.Expenses); err != nil {
			return fmt.Errorf("expense tree: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("category reconciliation failed: %w", err)
	}
	return nil
}

// RegisterAccounts ensures every configured account has a row. All
// registrations commit together; it is safe to call on every startup.
func (r *Runner) RegisterAccounts(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "sync.RegisterAccounts")
	defer span.End()

	err := r.db.WithinTx(ctx, func(q postgres.Querier) error {
		registrar := account.NewRegistrar(postgres.NewAccountRepository(q))
		for _, spec := range r.cfg.Accounts {
			if _, err := registrar.Register(ctx, spec); err != nil {
				return fmt.Errorf("account %q: %w", spec.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("account registration failed: %w", err)
	}
	return nil
}

// SyncAccount fetches and imports one account. The bank conversation
// happens before the transaction opens; only the resulting writes hold
// a database transaction.
func (r *Runner) SyncAccount(ctx context.Context, spec account.Spec) (*transaction.Result, error) {
	ctx, span := tracer.Start(ctx, "sync.SyncAccount", trace.WithAttributes(
		attribute.String("account.name", spec.Name),
	))
	defer span.End()

	if !spec.HasFinTS() {
		return nil, fmt.Errorf("account %q has no FinTS credentials", spec.Name)
	}

	creds := fints.Credentials{
		BLZ:       spec.BLZ,
		LoginName: spec.LoginName,
		PIN:       spec.PIN,
		Endpoint:  spec.Endpoint,
		IBAN:      spec.IBAN,
	}

	since := time.Now().AddDate(0, 0, -r.cfg.FinTS.DefaultDays)
	records, err := r.client.FetchTransactions(ctx, creds, since)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to fetch transactions for %q: %w", spec.Name, err)
	}
	span.SetAttributes(attribute.Int("fints.records", len(records)))

	// The balance is supplementary; a bank that reports transactions but
	// refuses the balance request should not block the import.
	var balanceAmount *decimal.Decimal
	var balanceCurrency string
	if bal, err := r.client.FetchBalance(ctx, creds); err != nil {
		log.Printf("Balance fetch for %q failed: %v", spec.Name, err)
	} else if amount, err := decimal.NewFromString(bal.Amount); err != nil {
		log.Printf("Unparseable balance %q for %q: %v", bal.Amount, spec.Name, err)
	} else {
		balanceAmount = &amount
		balanceCurrency = bal.Currency
	}

	var result *transaction.Result
	err = r.db.WithinTx(ctx, func(q postgres.Querier) error {
		registrar := account.NewRegistrar(postgres.NewAccountRepository(q))
		accountID, err := registrar.Register(ctx, spec)
		if err != nil {
			return err
		}

		if balanceAmount != nil {
			recorder := balance.NewRecorder(postgres.NewBalanceRepository(q))
			if err := recorder.Record(ctx, accountID, *balanceAmount, balanceCurrency); err != nil {
				return err
			}
		}

		importer := transaction.NewImporter(postgres.NewTransactionRepository(q))
		result, err = importer.Import(ctx, accountID, transaction.SourceFinTS, records)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("failed to import account %q: %w", spec.Name, err)
	}

	span.SetAttributes(
		attribute.Int("import.inserted", result.Inserted),
		attribute.Int("import.skipped", result.Skipped),
		attribute.Int("import.failed", result.Failed),
	)
	return result, nil
}

// SyncAll runs one sync pass over every configured account. A failing
// account is logged and skipped; one locked PIN must not starve the
// other accounts.
func (r *Runner) SyncAll(ctx context.Context) error {
	runID := uuid.New().String()
	ctx, span := tracer.Start(ctx, "sync.SyncAll", trace.WithAttributes(
		attribute.String("sync.run_id", runID),
	))
	defer span.End()

	if !r.cfg.FinTS.Enabled {
		log.Printf("Sync run %s: FinTS disabled, nothing to do", runID)
		return nil
	}

	log.Printf("Sync run %s started (%d accounts)", runID, len(r.cfg.Accounts))

	var attempted, failed int
	for _, spec := range r.cfg.Accounts {
		if !spec.HasFinTS() {
			log.Printf("Skipping %q: no FinTS credentials configured", spec.Name)
			continue
		}

		attempted++
		if _, err := r.SyncAccount(ctx, spec); err != nil {
			log.Printf("Sync run %s: %v", runID, err)
			failed++
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	log.Printf("Sync run %s finished (%d/%d failed)", runID, failed, attempted)
	if failed == attempted && failed > 0 {
		err := fmt.Errorf("all %d accounts failed to sync", failed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}
