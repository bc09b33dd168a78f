package cli

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

// newTokenCmd mints an HS256 bearer token for local development against a
// server running with a shared JWT secret. Useless against an OIDC-backed
// deployment, which is the point: the secret never leaves the dev machine.
func newTokenCmd() *cobra.Command {
	var (
		secret   string
		subject  string
		owner    string
		issuer   string
		audience string
		scope    string
		roles    []string
		amr      []string
		acr      string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}

			signed, err := mintToken(tokenParams{
				Secret:   secret,
				Subject:  subject,
				Owner:    owner,
				Issuer:   issuer,
				Audience: audience,
				Scope:    scope,
				Roles:    roles,
				AMR:      amr,
				ACR:      acr,
				TTL:      ttl,
			})
			if err != nil {
				return err
			}
			cmd.Println(signed)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "HS256 shared secret (required)")
	cmd.Flags().StringVar(&subject, "sub", "dev-user", "Subject claim")
	cmd.Flags().StringVar(&owner, "owner", "", "Owner/tenant id claim (UUID)")
	cmd.Flags().StringVar(&issuer, "issuer", "planner-dev", "Issuer claim")
	cmd.Flags().StringVar(&audience, "audience", "", "Audience claim")
	cmd.Flags().StringVar(&scope, "scope", "products.read", "Space-separated scope claim")
	cmd.Flags().StringSliceVar(&roles, "role", nil, "Role claim (repeatable)")
	cmd.Flags().StringSliceVar(&amr, "amr", nil, "Authentication method references (repeatable)")
	cmd.Flags().StringVar(&acr, "acr", "", "Authentication context class reference")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")

	return cmd
}

type tokenParams struct {
	Secret   string
	Subject  string
	Owner    string
	Issuer   string
	Audience string
	Scope    string
	Roles    []string
	AMR      []string
	ACR      string
	TTL      time.Duration
}

func mintToken(p tokenParams) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": p.Subject,
		"iss": p.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(p.TTL).Unix(),
	}
	if p.Audience != "" {
		claims["aud"] = p.Audience
	}
	if p.Owner != "" {
		claims["owner_id"] = p.Owner
	}
	if p.Scope != "" {
		claims["scope"] = p.Scope
	}
	if len(p.Roles) > 0 {
		claims["roles"] = p.Roles
	}
	if len(p.AMR) > 0 {
		claims["amr"] = p.AMR
	}
	if p.ACR != "" {
		claims["acr"] = p.ACR
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.Secret))
}
