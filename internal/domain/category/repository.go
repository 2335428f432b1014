package category

import "context"

// Repository defines the interface for category data access
// This interface is defined in the domain layer, but implemented in the infrastructure layer
type Repository interface {
	// FindByNameAndType looks a category up by its natural key.
	// Returns (nil, nil) when no such category exists.
	FindByNameAndType(ctx context.Context, name string, typ Type) (*Category, error)

	// Create inserts a new category. parentID may be nil for root categories.
	Create(ctx context.Context, name string, typ Type, parentID *int64) (*Category, error)

	// SetParent links a category under parentID only if its current parent
	// is NULL. Returns whether the link was written.
	SetParent(ctx context.Context, id int64, parentID int64) (bool, error)
}
