package account

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrMissingName   = errors.New("account name is required")
	ErrMissingIBAN   = errors.New("account IBAN is required")
	ErrNotFound      = errors.New("account not found")
	ErrDuplicateIBAN = errors.New("account with this IBAN already exists")
)

// Account represents a bank account row. The IBAN is the natural key.
type Account struct {
	ID        int64
	Name      string
	Type      string
	Bank      string
	IBAN      string
	CreatedAt time.Time
}

// Spec is one configured account as it appears in accounts.yaml. The
// FinTS credentials travel with it because the record source needs them;
// only name/type/bank/iban are persisted.
type Spec struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Bank      string `yaml:"bank"`
	IBAN      string `yaml:"iban"`
	BLZ       string `yaml:"blz"`
	LoginName string `yaml:"login_name"`
	PIN       string `yaml:"pin"`
	Endpoint  string `yaml:"endpoint"`
}

// Validate checks the fields required for registration.
func (s *Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(s.IBAN) == "" {
		return ErrMissingIBAN
	}
	return nil
}

// HasFinTS reports whether the spec carries enough credentials to reach
// the bank over FinTS.
func (s *Spec) HasFinTS() bool {
	return s.BLZ != "" && s.Endpoint != ""
}

// Stats is an account joined with its transaction summary, used by the
// admin CLI listing.
type Stats struct {
	Account
	TransactionCount int64
	LastTransaction  *time.Time
}
