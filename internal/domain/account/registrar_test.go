package account

import (
	"context"
	"errors"
	"testing"
)

// MockRepository is a mock implementation of Repository interface
type MockRepository struct {
	FindByIBANFunc    func(ctx context.Context, iban string) (*Account, error)
	CreateFunc        func(ctx context.Context, spec Spec) (*Account, error)
	ListWithStatsFunc func(ctx context.Context) ([]*Stats, error)
}

func (m *MockRepository) FindByIBAN(ctx context.Context, iban string) (*Account, error) {
	if m.FindByIBANFunc != nil {
		return m.FindByIBANFunc(ctx, iban)
	}
	return nil, nil
}

func (m *MockRepository) Create(ctx context.Context, spec Spec) (*Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, spec)
	}
	return nil, nil
}

func (m *MockRepository) ListWithStats(ctx context.Context) ([]*Stats, error) {
	if m.ListWithStatsFunc != nil {
		return m.ListWithStatsFunc(ctx)
	}
	return nil, nil
}

func validSpec() Spec {
	return Spec{
		Name: "Girokonto",
		Type: "checking",
		Bank: "Postbank",
		IBAN: "DE89370400440532013000",
	}
}

func TestRegister_CreatesWhenAbsent(t *testing.T) {
	ctx := context.Background()

	created := 0
	repo := &MockRepository{
		CreateFunc: func(ctx context.Context, spec Spec) (*Account, error) {
			created++
			return &Account{ID: 7, Name: spec.Name, IBAN: spec.IBAN}, nil
		},
	}

	id, err := NewRegistrar(repo).Register(ctx, validSpec())
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if id != 7 {
		t.Errorf("Register() = %d, want 7", id)
	}
	if created != 1 {
		t.Errorf("Create called %d times, want 1", created)
	}
}

func TestRegister_SameIBANTwice(t *testing.T) {
	ctx := context.Background()

	var stored *Account
	created := 0
	repo := &MockRepository{
		FindByIBANFunc: func(ctx context.Context, iban string) (*Account, error) {
			if stored != nil && stored.IBAN == iban {
				return stored, nil
			}
			return nil, nil
		},
		CreateFunc: func(ctx context.Context, spec Spec) (*Account, error) {
			created++
			stored = &Account{ID: 42, Name: spec.Name, IBAN: spec.IBAN}
			return stored, nil
		},
	}

	registrar := NewRegistrar(repo)
	first, err := registrar.Register(ctx, validSpec())
	if err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}

	// Second registration with a drifted display name must return the
	// same id and leave the row alone.
	drifted := validSpec()
	drifted.Name = "Hauptkonto"
	second, err := registrar.Register(ctx, drifted)
	if err != nil {
		t.Fatalf("second Register() failed: %v", err)
	}

	if first != second {
		t.Errorf("Register() returned %d then %d, want the same id", first, second)
	}
	if created != 1 {
		t.Errorf("Create called %d times, want 1", created)
	}
	if stored.Name != "Girokonto" {
		t.Errorf("stored name = %q, want the original %q untouched", stored.Name, "Girokonto")
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Spec)
		wantErr error
	}{
		{"MissingName", func(s *Spec) { s.Name = " " }, ErrMissingName},
		{"MissingIBAN", func(s *Spec) { s.IBAN = "" }, ErrMissingIBAN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)

			_, err := NewRegistrar(&MockRepository{}).Register(context.Background(), spec)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegister_LostInsertRace(t *testing.T) {
	// The first lookup sees nothing, the insert hits the unique IBAN
	// constraint because another writer got there first, and the
	// registrar resolves the winner's row.
	finds := 0
	repo := &MockRepository{
		FindByIBANFunc: func(ctx context.Context, iban string) (*Account, error) {
			finds++
			if finds == 1 {
				return nil, nil
			}
			return &Account{ID: 99, IBAN: iban}, nil
		},
		CreateFunc: func(ctx context.Context, spec Spec) (*Account, error) {
			return nil, ErrDuplicateIBAN
		},
	}

	id, err := NewRegistrar(repo).Register(context.Background(), validSpec())
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if id != 99 {
		t.Errorf("Register() = %d, want the concurrent writer's id 99", id)
	}
}

func TestRegister_LookupError(t *testing.T) {
	repo := &MockRepository{
		FindByIBANFunc: func(ctx context.Context, iban string) (*Account, error) {
			return nil, errors.New("connection refused")
		},
	}

	_, err := NewRegistrar(repo).Register(context.Background(), validSpec())
	if err == nil {
		t.Fatal("Register() expected error when the store is unreachable, got nil")
	}
}
