package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"finanzen/internal/domain/category"
)

// CategoryRepository implements the category.Repository interface for PostgreSQL
type CategoryRepository struct {
	q Querier
}

// NewCategoryRepository creates a new PostgreSQL category repository
func NewCategoryRepository(q Querier) *CategoryRepository {
	return &CategoryRepository{q: q}
}

// FindByNameAndType retrieves a category by its natural key.
// Returns (nil, nil) when no row matches.
func (r *CategoryRepository) FindByNameAndType(ctx context.Context, name string, typ category.Type) (*category.Category, error) {
	query := `
		SELECT id, name, type, parent_id
		FROM categories
		WHERE name = $1 AND type = $2
	`

	var cat category.Category
	var parentID sql.NullInt64

	err := r.q.QueryRowContext(ctx, query, name, string(typ)).Scan(
		&cat.ID, &cat.Name, &cat.Type, &parentID,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	if parentID.Valid {
		cat.ParentID = &parentID.Int64
	}

	return &cat, nil
}

// Create inserts a new category. parentID may be nil for root categories.
func (r *CategoryRepository) Create(ctx context.Context, name string, typ category.Type, parentID *int64) (*category.Category, error) {
	query := `
		INSERT INTO categories (name, type, parent_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, type, parent_id
	`

	var parentIn sql.NullInt64
	if parentID != nil {
		parentIn.Int64 = *parentID
		parentIn.Valid = true
	}

	var cat category.Category
	var parentOut sql.NullInt64

	err := r.q.QueryRowContext(ctx, query, name, string(typ), parentIn).Scan(
		&cat.ID, &cat.Name, &cat.Type, &parentOut,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	if parentOut.Valid {
		cat.ParentID = &parentOut.Int64
	}

	return &cat, nil
}

// SetParent links a category under parentID. The NULL guard lives in the
// statement so an already-linked category is never reparented.
func (r *CategoryRepository) SetParent(ctx context.Context, id int64, parentID int64) (bool, error) {
	query := `
		UPDATE categories
		SET parent_id = $1
		WHERE id = $2 AND parent_id IS NULL
	`

	result, err := r.q.ExecContext(ctx, query, parentID, id)
	if err != nil {
		return false, fmt.Errorf("failed to set category parent: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows > 0, nil
}
