package middleware

import (
	"sort"
	"strings"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/google/uuid"
)

// PrincipalFromClaims derives a typed Principal from a validated claim set.
// It is a pure function: no I/O, no errors. Unresolvable pieces degrade to
// their zero values; in particular an unparsable owner identity yields a
// principal that is unauthenticated for ownership purposes.
//
// Claim conventions handled:
//   - scopes: `scope` (space-delimited string, RFC 8693 style) unioned with
//     `scp` (string or array) as emitted by some providers;
//   - roles: `roles` unioned with the legacy `groups` claim;
//   - auth methods: `amr` (array or single string), lower-cased;
//   - owner identity: ownerClaim if present, else `sub`, parsed as a UUID.
func PrincipalFromClaims(claims *TokenClaims, ownerClaim string) domain.Principal {
	if claims == nil {
		return domain.Anonymous
	}

	p := domain.Principal{Subject: claims.Subject}

	scopes := map[string]bool{}
	if s, ok := claims.Raw["scope"].(string); ok {
		for _, sc := range strings.Fields(s) {
			scopes[sc] = true
		}
	}
	for _, sc := range stringValues(claims.Raw["scp"]) {
		scopes[sc] = true
	}
	p.Scopes = sortedKeys(scopes)

	roles := map[string]bool{}
	for _, r := range stringValues(claims.Raw["roles"]) {
		roles[r] = true
	}
	for _, r := range stringValues(claims.Raw["groups"]) {
		roles[r] = true
	}
	p.Roles = sortedKeys(roles)

	for _, m := range stringValues(claims.Raw["amr"]) {
		p.AuthMethods = append(p.AuthMethods, strings.ToLower(m))
	}
	if acr, ok := claims.Raw["acr"].(string); ok {
		p.AuthContextClass = acr
	}

	p.OwnerID = resolveOwner(claims, ownerClaim)
	return p
}

// resolveOwner resolves the tenant identity: explicit owner claim first,
// subject second. A value that does not parse as a UUID resolves to uuid.Nil
// rather than failing the request.
func resolveOwner(claims *TokenClaims, ownerClaim string) uuid.UUID {
	if ownerClaim != "" {
		if v, ok := claims.Raw[ownerClaim].(string); ok && v != "" {
			return domain.ParseOwnerID(v)
		}
	}
	return domain.ParseOwnerID(claims.Subject)
}

// stringValues normalizes a claim that may be a single string, a
// space-delimited string, or an array of strings.
func stringValues(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return strings.Fields(val)
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return val
	default:
		return nil
	}
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	// Stable ordering keeps principals comparable in logs and tests.
	sort.Strings(out)
	return out
}
