package domain

import "github.com/google/uuid"

// NewID generates a UUIDv7 string for application-owned entities.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// ParseOwnerID parses a string into an owner identity. An unparsable value
// yields uuid.Nil ("no owner") rather than an error, so a token with a
// non-UUID subject degrades to an ownership-unauthenticated principal.
func ParseOwnerID(s string) uuid.UUID {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil
	}
	return id
}
