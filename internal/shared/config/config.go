package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"finanzen/internal/domain/account"
	"finanzen/internal/domain/category"
	"finanzen/internal/infrastructure/crypto"
)

// encryptedPrefix marks a PIN value in accounts.yaml that was encrypted
// with the key from FINANZEN_ENCRYPTION_KEY.
const encryptedPrefix = "enc:"

type Config struct {
	Database   DatabaseConfig
	FinTS      FinTSConfig
	Service    ServiceConfig
	Telemetry  TelemetryConfig
	Accounts   []account.Spec
	Categories CategoryTrees
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type FinTSConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BridgeURL   string `yaml:"bridge_url"`
	ProductID   string `yaml:"product_id"`
	DefaultDays int    `yaml:"default_days"`
}

type ServiceConfig struct {
	PollInterval  time.Duration
	RetryInterval time.Duration
}

type TelemetryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ServiceName  string `yaml:"service_name"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	MetricsPort  string `yaml:"metrics_port"`
}

// CategoryTrees holds both halves of categories.yaml. Each slice is a
// forest of root categories for one transaction direction.
type CategoryTrees struct {
	Income   []category.Node `yaml:"income"`
	Expenses []category.Node `yaml:"expenses"`
}

// settingsFile mirrors settings.yaml. Durations arrive as strings and
// are parsed in Load so a typo fails loudly instead of defaulting.
type settingsFile struct {
	Database  DatabaseConfig  `yaml:"database"`
	FinTS     FinTSConfig     `yaml:"fints"`
	Service   serviceSection  `yaml:"service"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type serviceSection struct {
	PollInterval  string `yaml:"poll_interval"`
	RetryInterval string `yaml:"retry_interval"`
}

type accountsFile struct {
	Accounts []account.Spec `yaml:"accounts"`
}

// Load reads settings.yaml, accounts.yaml and categories.yaml from dir.
// settings.yaml is required; the other two may be absent, which leaves
// the corresponding sections empty. Environment variables referenced as
// ${VAR} inside any file are expanded before decoding, and DB_* / OTEL_*
// variables override their settings.yaml counterparts.
func Load(dir string) (*Config, error) {
	var settings settingsFile
	if err := loadExpanded(filepath.Join(dir, "settings.yaml"), &settings); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	cfg := &Config{
		Database:  settings.Database,
		FinTS:     settings.FinTS,
		Telemetry: settings.Telemetry,
	}

	var accounts accountsFile
	if err := loadExpanded(filepath.Join(dir, "accounts.yaml"), &accounts); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load accounts: %w", err)
		}
	}
	cfg.Accounts = accounts.Accounts

	if err := loadExpanded(filepath.Join(dir, "categories.yaml"), &cfg.Categories); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load categories: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	poll, err := parseDuration(settings.Service.PollInterval, 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid poll_interval: %w", err)
	}
	retry, err := parseDuration(settings.Service.RetryInterval, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid retry_interval: %w", err)
	}
	cfg.Service = ServiceConfig{PollInterval: poll, RetryInterval: retry}

	if cfg.FinTS.Enabled && cfg.FinTS.BridgeURL == "" {
		return nil, fmt.Errorf("fints.bridge_url is required when fints.enabled is true")
	}

	if err := decryptPINs(cfg.Accounts); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadExpanded decodes a YAML file in two passes: first into a generic
// tree so ${VAR} references can be expanded in every scalar, then into
// the typed target.
func loadExpanded(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", filepath.Base(path), err)
	}

	expanded, err := yaml.Marshal(ExpandEnv(tree))
	if err != nil {
		return fmt.Errorf("failed to re-encode %s: %w", filepath.Base(path), err)
	}

	if err := yaml.Unmarshal(expanded, out); err != nil {
		return fmt.Errorf("invalid structure in %s: %w", filepath.Base(path), err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	cfg.Database.Host = getEnv("DB_HOST", cfg.Database.Host)
	cfg.Database.User = getEnv("DB_USER", cfg.Database.User)
	cfg.Database.Password = getEnv("DB_PASSWORD", cfg.Database.Password)
	cfg.Database.DBName = getEnv("DB_NAME", cfg.Database.DBName)
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", cfg.Database.SSLMode)

	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid DB_PORT: %w", err)
		}
		cfg.Database.Port = port
	}

	cfg.Telemetry.Enabled = getBoolEnv("OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.OTLPEndpoint = getEnv("OTEL_EXPORTER_ENDPOINT", cfg.Telemetry.OTLPEndpoint)
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "finanzen"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "finanzen"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.FinTS.ProductID == "" {
		cfg.FinTS.ProductID = "FINANZEN_1.0"
	}
	if cfg.FinTS.DefaultDays == 0 {
		cfg.FinTS.DefaultDays = 30
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "finanzen"
	}
	if cfg.Telemetry.OTLPEndpoint == "" {
		cfg.Telemetry.OTLPEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.MetricsPort == "" {
		cfg.Telemetry.MetricsPort = "9464"
	}
}

// decryptPINs replaces enc:-prefixed PINs in place. The key comes from
// FINANZEN_ENCRYPTION_KEY; an encrypted PIN without a key is an error
// rather than a credential the bank will lock the account over.
func decryptPINs(accounts []account.Spec) error {
	var enc *crypto.Encryptor
	for i := range accounts {
		pin := accounts[i].PIN
		if !strings.HasPrefix(pin, encryptedPrefix) {
			continue
		}

		if enc == nil {
			key := os.Getenv("FINANZEN_ENCRYPTION_KEY")
			if key == "" {
				return fmt.Errorf("account %q has an encrypted PIN but FINANZEN_ENCRYPTION_KEY is not set", accounts[i].Name)
			}
			var err error
			enc, err = crypto.NewEncryptor(key)
			if err != nil {
				return fmt.Errorf("invalid FINANZEN_ENCRYPTION_KEY: %w", err)
			}
		}

		plain, err := enc.Decrypt(strings.TrimPrefix(pin, encryptedPrefix))
		if err != nil {
			return fmt.Errorf("failed to decrypt PIN for account %q: %w", accounts[i].Name, err)
		}
		accounts[i].PIN = plain
	}
	return nil
}

func parseDuration(value string, defaultValue time.Duration) (time.Duration, error) {
	if value == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(value)
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept: true, false, 1, 0, yes, no (case-insensitive)
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return defaultValue
	}
}
