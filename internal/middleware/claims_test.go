package middleware

import (
	"testing"

	"github.com/MonkeyElite/Production-Planner/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPrincipalFromClaims_ScopesUnioned(t *testing.T) {
	t.Parallel()

	claims := &TokenClaims{
		Subject: "b9f3c55e-9c0f-4b7a-9a69-93a61a20ba5f",
		Raw: map[string]interface{}{
			"scope": "products.read lines.read",
			"scp":   []interface{}{"products.write", "products.read"},
		},
	}

	p := PrincipalFromClaims(claims, "owner_id")
	assert.Equal(t, []string{"lines.read", "products.read", "products.write"}, p.Scopes)
}

func TestPrincipalFromClaims_RolesFromBothClaimNames(t *testing.T) {
	t.Parallel()

	claims := &TokenClaims{
		Subject: "b9f3c55e-9c0f-4b7a-9a69-93a61a20ba5f",
		Raw: map[string]interface{}{
			"roles":  []interface{}{"planner"},
			"groups": []interface{}{"auditor", "planner"},
		},
	}

	p := PrincipalFromClaims(claims, "owner_id")
	assert.Equal(t, []string{"auditor", "planner"}, p.Roles)
}

func TestPrincipalFromClaims_AuthMethodsLowerCased(t *testing.T) {
	t.Parallel()

	claims := &TokenClaims{
		Subject: "s",
		Raw: map[string]interface{}{
			"amr": []interface{}{"MFA", "otp"},
			"acr": "urn:acr:strong",
		},
	}

	p := PrincipalFromClaims(claims, "owner_id")
	assert.Equal(t, []string{"mfa", "otp"}, p.AuthMethods)
	assert.Equal(t, "urn:acr:strong", p.AuthContextClass)
	assert.True(t, p.HasAnyAuthMethod([]string{"mfa"}))
	assert.True(t, p.HasAnyAuthMethod([]string{"OTP"}))
	assert.False(t, p.HasAnyAuthMethod([]string{"hwk"}))
}

func TestPrincipalFromClaims_OwnerResolution(t *testing.T) {
	t.Parallel()

	ownerA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	subB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	tests := []struct {
		name      string
		sub       string
		raw       map[string]interface{}
		wantOwner uuid.UUID
	}{
		{
			name:      "explicit owner claim wins over subject",
			sub:       subB.String(),
			raw:       map[string]interface{}{"owner_id": ownerA.String()},
			wantOwner: ownerA,
		},
		{
			name:      "falls back to subject",
			sub:       subB.String(),
			raw:       map[string]interface{}{},
			wantOwner: subB,
		},
		{
			name:      "unparsable owner claim yields no owner, not an error",
			sub:       "service-account-7",
			raw:       map[string]interface{}{"owner_id": "not-a-uuid"},
			wantOwner: uuid.Nil,
		},
		{
			name:      "unparsable subject yields no owner",
			sub:       "service-account-7",
			raw:       map[string]interface{}{},
			wantOwner: uuid.Nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := PrincipalFromClaims(&TokenClaims{Subject: tt.sub, Raw: tt.raw}, "owner_id")
			assert.Equal(t, tt.wantOwner, p.OwnerID)
			// Even without an owner the principal stays authenticated for
			// everything except ownership checks.
			assert.True(t, p.IsAuthenticated())
			assert.Equal(t, tt.wantOwner != uuid.Nil, p.HasOwner())
		})
	}
}

func TestPrincipalFromClaims_NilClaims(t *testing.T) {
	t.Parallel()

	p := PrincipalFromClaims(nil, "owner_id")
	assert.Equal(t, domain.Anonymous, p)
	assert.False(t, p.IsAuthenticated())
}
