package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProductionLine is a named grouping of products. The line and all of its
// member products must share the same owner; cross-owner membership is
// rejected at the storage layer.
type ProductionLine struct {
	ID          string
	OwnerID     uuid.UUID
	Name        string
	Description string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// ProductIDs lists member products. Populated on single-line reads.
	ProductIDs []string
}

// CreateLineRequest holds parameters for creating a new production line.
type CreateLineRequest struct {
	Name        string
	Description string
}

// Validate checks that the request is well-formed.
func (r *CreateLineRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("line name is required")
	}
	if len(r.Name) > 255 {
		return ErrValidation("line name must be at most 255 characters")
	}
	return nil
}

// UpdateLineRequest holds parameters for updating a production line.
type UpdateLineRequest struct {
	Name        string
	Description string
	IfVersion   *int64
}

// Validate checks that the request is well-formed.
func (r *UpdateLineRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("line name is required")
	}
	if len(r.Name) > 255 {
		return ErrValidation("line name must be at most 255 characters")
	}
	return nil
}
