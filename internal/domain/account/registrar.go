package account

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Registrar makes sure every configured account has a row and resolves
// its identifier. Registration is insert-if-absent only: once a row
// exists for an IBAN it is never modified, even when name, type or bank
// have drifted in configuration since the first sync.
type Registrar struct {
	repo Repository
}

// NewRegistrar creates a new account registrar
func NewRegistrar(repo Repository) *Registrar {
	return &Registrar{repo: repo}
}

// Register returns the stored identifier for the configured account,
// creating the row on first sight.
func (r *Registrar) Register(ctx context.Context, spec Spec) (int64, error) {
	if err := spec.Validate(); err != nil {
		return 0, err
	}

	existing, err := r.repo.FindByIBAN(ctx, spec.IBAN)
	if err != nil {
		return 0, fmt.Errorf("failed to look up account by IBAN: %w", err)
	}
	if existing != nil {
		return existing.ID, nil
	}

	created, err := r.repo.Create(ctx, spec)
	if errors.Is(err, ErrDuplicateIBAN) {
		// Lost the race against another writer (admin sync next to the
		// service); the row exists now, read it back.
		existing, findErr := r.repo.FindByIBAN(ctx, spec.IBAN)
		if findErr != nil || existing == nil {
			return 0, fmt.Errorf("failed to resolve account %q after duplicate insert: %w", spec.Name, err)
		}
		return existing.ID, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create account %q: %w", spec.Name, err)
	}
	log.Printf("Registered account %q (id=%d)", created.Name, created.ID)

	return created.ID, nil
}
