// Package security implements the authorization decision engine: named
// policy evaluation over principals, and the single ownership rule.
package security

import (
	"github.com/MonkeyElite/Production-Planner/internal/config"
	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/google/uuid"
)

// Policy names the fixed set of named policies. The set is closed: policies
// are defined at process start from configuration and immutable thereafter.
type Policy string

const (
	// PolicyRead requires an authenticated principal holding the read scope.
	PolicyRead Policy = "read"
	// PolicyWrite requires an authenticated principal holding the elevated
	// write role (and, when configured, the write scope).
	PolicyWrite Policy = "write"
	// PolicyStepUp requires strong-authentication evidence.
	PolicyStepUp Policy = "step-up"
)

// Authorizer evaluates named policies against a Principal. Evaluation is a
// pure predicate: no I/O, no resource context. Resource context enters only
// through the separate ownership check.
type Authorizer struct {
	readScope     string
	writeRole     string
	writeScope    string
	stepUpMethods []string
	stepUpContext string
}

// NewAuthorizer builds the immutable policy set from the startup snapshot.
func NewAuthorizer(cfg config.PolicyConfig) *Authorizer {
	return &Authorizer{
		readScope:     cfg.ReadScope,
		writeRole:     cfg.WriteRole,
		writeScope:    cfg.WriteScope,
		stepUpMethods: cfg.StepUpAuthMethods,
		stepUpContext: cfg.StepUpAuthContextClass,
	}
}

// Allow evaluates the named policy for the principal. A nil return means the
// policy passed; the error is typed so the transport layer can map it.
func (a *Authorizer) Allow(policy Policy, p domain.Principal) error {
	if !p.IsAuthenticated() {
		return domain.ErrUnauthenticated("authentication required")
	}

	switch policy {
	case PolicyRead:
		if !p.HasScope(a.readScope) {
			return domain.ErrAccessDenied("missing required scope %q", a.readScope)
		}
	case PolicyWrite:
		if !p.HasRole(a.writeRole) {
			return domain.ErrAccessDenied("missing required role %q", a.writeRole)
		}
		if a.writeScope != "" && !p.HasScope(a.writeScope) {
			return domain.ErrAccessDenied("missing required scope %q", a.writeScope)
		}
	case PolicyStepUp:
		if !p.HasAnyAuthMethod(a.stepUpMethods) &&
			(a.stepUpContext == "" || p.AuthContextClass != a.stepUpContext) {
			return domain.ErrStepUpRequired("step-up authentication required")
		}
	default:
		return domain.ErrAccessDenied("unknown policy %q", policy)
	}
	return nil
}

// AuthorizeOwnership reports whether the principal owns a resource with the
// given owner identity. A principal without a resolvable owner never owns
// anything, even when its token is otherwise valid.
func AuthorizeOwnership(p domain.Principal, resourceOwnerID uuid.UUID) bool {
	return p.HasOwner() && p.OwnerID == resourceOwnerID
}
