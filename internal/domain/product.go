package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a persisted inventory item owned by exactly one tenant.
// OwnerID is set at creation and never changed by any update path. Version
// advances by one on every successful mutation; clients only ever see its
// opaque entity-tag encoding.
type Product struct {
	ID        string
	OwnerID   uuid.UUID
	Name      string
	SKU       string
	Quantity  int64
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateProductRequest holds parameters for creating a new product.
type CreateProductRequest struct {
	Name     string
	SKU      string
	Quantity int64
}

// Validate checks that the request is well-formed.
func (r *CreateProductRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("product name is required")
	}
	if len(r.Name) > 255 {
		return ErrValidation("product name must be at most 255 characters")
	}
	if r.Quantity < 0 {
		return ErrValidation("quantity must not be negative")
	}
	return nil
}

// UpdateProductRequest holds parameters for updating a product. IfVersion is
// the decoded conditional version token; nil means the write is unconditional
// (last-writer-wins), which is deliberate.
type UpdateProductRequest struct {
	Name      string
	SKU       string
	Quantity  int64
	IfVersion *int64
}

// Validate checks that the request is well-formed.
func (r *UpdateProductRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("product name is required")
	}
	if len(r.Name) > 255 {
		return ErrValidation("product name must be at most 255 characters")
	}
	if r.Quantity < 0 {
		return ErrValidation("quantity must not be negative")
	}
	return nil
}
