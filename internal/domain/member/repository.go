package member

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Member entities.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByBarcode(ctx context.Context, barcode string) (*Member, error)
	Update(ctx context.Context, m *Member) error // Handles updates to FirstName, LastName, IsActive
	ListActive(ctx context.Context) ([]*Member, error)
	ListAll(ctx context.Context) ([]*Member, error) // For admin purposes
}
