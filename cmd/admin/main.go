package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"finanzen/internal/domain/document"
	syncsvc "finanzen/internal/domain/sync"
	"finanzen/internal/domain/transaction"
	"finanzen/internal/infrastructure/fints"
	"finanzen/internal/infrastructure/postgres"
	"finanzen/internal/shared/config"
)

const usage = `Finanzen Admin CLI - Management commands for the ingestion service

Usage:
  admin <command> [options]

Commands:
  accounts          List accounts as configured in accounts.yaml
  db-accounts       List registered accounts with transaction statistics
  test-connection   Fetch the current balance through the FinTS bridge
  sync              Run one full sync pass (register, reconcile, import)
  transactions      Show recently imported transactions
  import-doc        Import a payment document from an extracted text file

Examples:
  # Verify bank reachability for one account
  admin test-connection --account=Girokonto

  # Run a sync outside the service schedule
  admin sync

  # Show the last 50 imported transactions
  admin transactions --limit=50

  # Import an extracted PDF text into account 1
  admin import-doc --account-id=1 --file=invoice.txt
`

func main() {
	// Missing .env is fine; the config files carry the defaults.
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "accounts":
		runAccounts(os.Args[2:])
	case "db-accounts":
		runDBAccounts(os.Args[2:])
	case "test-connection":
		runTestConnection(os.Args[2:])
	case "sync":
		runSync(os.Args[2:])
	case "transactions":
		runTransactions(os.Args[2:])
	case "import-doc":
		runImportDoc(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func configDir() string {
	if dir := os.Getenv("FINANZEN_CONFIG_DIR"); dir != "" {
		return dir
	}
	return "config"
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configDir())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func connect(cfg *config.Config) *postgres.DB {
	db, err := postgres.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	return db
}

func runAccounts(args []string) {
	fs := flag.NewFlagSet("accounts", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig()

	if len(cfg.Accounts) == 0 {
		fmt.Println("No accounts configured")
		return
	}

	for _, spec := range cfg.Accounts {
		viaFinTS := "no"
		if spec.HasFinTS() {
			viaFinTS = "yes"
		}
		fmt.Printf("%-20s %-10s %-22s bank=%s fints=%s\n",
			spec.Name, spec.Type, spec.IBAN, spec.Bank, viaFinTS)
	}
}

func runDBAccounts(args []string) {
	fs := flag.NewFlagSet("db-accounts", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig()
	db := connect(cfg)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stats, err := postgres.NewAccountRepository(db).ListWithStats(ctx)
	if err != nil {
		log.Fatalf("Failed to list accounts: %v", err)
	}

	if len(stats) == 0 {
		fmt.Println("No accounts registered yet")
		return
	}

	for _, s := range stats {
		last := "never"
		if s.LastTransaction != nil {
			last = s.LastTransaction.Format(transaction.DateLayout)
		}
		fmt.Printf("[%d] %-20s %-22s transactions=%d last=%s\n",
			s.ID, s.Name, s.IBAN, s.TransactionCount, last)
	}
}

func runTestConnection(args []string) {
	fs := flag.NewFlagSet("test-connection", flag.ExitOnError)
	accountName := fs.String("account", "", "Only test the account with this name")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig()
	if cfg.FinTS.BridgeURL == "" {
		log.Fatal("fints.bridge_url is not configured")
	}
	client := fints.NewClient(cfg.FinTS.BridgeURL, cfg.FinTS.ProductID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tested := 0
	for _, spec := range cfg.Accounts {
		if *accountName != "" && spec.Name != *accountName {
			continue
		}
		if !spec.HasFinTS() {
			if *accountName != "" {
				log.Fatalf("Account %q has no FinTS credentials", spec.Name)
			}
			continue
		}
		tested++

		creds := fints.Credentials{
			BLZ:       spec.BLZ,
			LoginName: spec.LoginName,
			PIN:       spec.PIN,
			Endpoint:  spec.Endpoint,
			IBAN:      spec.IBAN,
		}
		bal, err := client.FetchBalance(ctx, creds)
		if err != nil {
			fmt.Printf("%-20s FAILED: %v\n", spec.Name, err)
			continue
		}
		fmt.Printf("%-20s OK: balance %s %s\n", spec.Name, bal.Amount, bal.Currency)
	}

	if tested == 0 {
		if *accountName != "" {
			log.Fatalf("No configured account named %q", *accountName)
		}
		fmt.Println("No accounts with FinTS credentials configured")
	}
}

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	timeoutStr := fs.String("timeout", "30m", "Timeout for the sync pass (e.g., 5m, 1h)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	timeout, err := time.ParseDuration(*timeoutStr)
	if err != nil {
		log.Fatalf("Invalid timeout format: %v", err)
	}

	cfg := loadConfig()
	db := connect(cfg)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	client := fints.NewClient(cfg.FinTS.BridgeURL, cfg.FinTS.ProductID)
	runner := syncsvc.NewRunner(db, client, cfg)

	if err := runner.ReconcileCategories(ctx); err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
	if err := runner.RegisterAccounts(ctx); err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
	if err := runner.SyncAll(ctx); err != nil {
		log.Fatalf("Sync failed: %v", err)
	}
}

func runTransactions(args []string) {
	fs := flag.NewFlagSet("transactions", flag.ExitOnError)
	limit := fs.Int("limit", 20, "Number of transactions to show")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cfg := loadConfig()
	db := connect(cfg)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	txs, err := postgres.NewTransactionRepository(db).ListRecent(ctx, *limit)
	if err != nil {
		log.Fatalf("Failed to list transactions: %v", err)
	}

	if len(txs) == 0 {
		fmt.Println("No transactions imported yet")
		return
	}

	for _, tx := range txs {
		fmt.Printf("%s  %10s  %-15s %-6s %s\n",
			tx.Date.Format(transaction.DateLayout), tx.Amount, tx.AccountName, tx.Source, tx.Description)
	}
}

func runImportDoc(args []string) {
	fs := flag.NewFlagSet("import-doc", flag.ExitOnError)
	accountID := fs.Int64("account-id", 0, "Account to attach the document's transaction to")
	file := fs.String("file", "", "Path to the extracted document text")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *accountID == 0 || *file == "" {
		fmt.Println("Error: must specify --account-id and --file")
		fs.Usage()
		os.Exit(1)
	}

	text, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}

	cfg := loadConfig()
	db := connect(cfg)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = db.WithinTx(ctx, func(q postgres.Querier) error {
		importer := document.NewImporter(
			postgres.NewDocumentRepository(q),
			transaction.NewImporter(postgres.NewTransactionRepository(q)),
		)

		doc, res, err := importer.ImportText(ctx, *accountID, *file, string(text))
		if err != nil {
			return err
		}

		fmt.Printf("Stored document %d (%s)\n", doc.ID, doc.Subject)
		if res == nil {
			fmt.Println("No transaction derived (amount or date missing)")
		} else {
			fmt.Printf("Transactions: inserted=%d skipped=%d failed=%d\n",
				res.Inserted, res.Skipped, res.Failed)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
}
