package domain

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository is the storage port for products. Every lookup and
// mutation is keyed by (ownerID, id): a caller can never observe, not even
// as a distinct error, a row belonging to another owner.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) (*Product, error)
	GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*Product, error)
	List(ctx context.Context, ownerID uuid.UUID, page PageRequest) ([]Product, int64, error)
	// Update applies the mutation iff the stored version equals
	// expectedVersion, advancing the version atomically. A zero-row update
	// reports a precondition failure.
	Update(ctx context.Context, p *Product, expectedVersion int64) (*Product, error)
	// Delete honors the same expectedVersion contract as Update; a negative
	// value deletes unconditionally.
	Delete(ctx context.Context, ownerID uuid.UUID, id string, expectedVersion int64) error
}

// LineRepository is the storage port for production lines and their
// same-owner product membership relation.
type LineRepository interface {
	Create(ctx context.Context, l *ProductionLine) (*ProductionLine, error)
	GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*ProductionLine, error)
	List(ctx context.Context, ownerID uuid.UUID, page PageRequest) ([]ProductionLine, int64, error)
	Update(ctx context.Context, l *ProductionLine, expectedVersion int64) (*ProductionLine, error)
	Delete(ctx context.Context, ownerID uuid.UUID, id string, expectedVersion int64) error
	// AddProduct inserts a membership row and advances the line version in
	// one transaction. The product must exist under the same owner.
	AddProduct(ctx context.Context, ownerID uuid.UUID, lineID, productID string, expectedVersion int64) (*ProductionLine, error)
	RemoveProduct(ctx context.Context, ownerID uuid.UUID, lineID, productID string, expectedVersion int64) (*ProductionLine, error)
}
