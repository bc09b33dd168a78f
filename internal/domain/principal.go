package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Principal is the authenticated identity derived from a validated token.
// It is built once per request by the claim extractor and never persisted;
// downstream components consume it instead of re-parsing raw claims.
type Principal struct {
	// Subject is the stable caller identifier (JWT `sub`).
	Subject string
	// OwnerID is the tenant identity that scopes every resource access.
	// uuid.Nil means no owner could be resolved: the principal is
	// unauthenticated for ownership purposes even if the token is valid.
	OwnerID uuid.UUID
	// Scopes granted to the credential.
	Scopes []string
	// Roles granted to the credential.
	Roles []string
	// AuthMethods are the authentication-method references (`amr`),
	// lower-cased at extraction time.
	AuthMethods []string
	// AuthContextClass is the authentication context class reference (`acr`).
	AuthContextClass string
}

// Anonymous is the zero principal used for unauthenticated requests.
var Anonymous = Principal{}

// IsAuthenticated reports whether the principal carries a subject.
func (p Principal) IsAuthenticated() bool {
	return p.Subject != ""
}

// HasOwner reports whether an owner identity was resolved.
func (p Principal) HasOwner() bool {
	return p.OwnerID != uuid.Nil
}

// HasScope reports whether the principal holds the given scope.
func (p Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// HasRole reports whether the principal holds the given role.
func (p Principal) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// HasAnyAuthMethod reports whether any of the given method references appear
// in the principal's `amr` set. Comparison is case-insensitive.
func (p Principal) HasAnyAuthMethod(methods []string) bool {
	for _, want := range methods {
		for _, have := range p.AuthMethods {
			if strings.EqualFold(have, want) {
				return true
			}
		}
	}
	return false
}
