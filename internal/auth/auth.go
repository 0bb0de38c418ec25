// Package auth implements C1, the TokenVerifier collaborator: it validates
// bearer tokens presented at handshake and returns an authenticated
// identity. Production verification is JWKS-backed (Auth0-style issuer);
// a MockValidator exists for local development with SKIP_AUTH=true.
package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/corsairlabs/meetcore/internal/apperr"
)

// Identity is the authenticated user snapshot C1 returns. It is injected
// into the session layer and never mutated there.
type Identity struct {
	UserID      string
	Email       string
	DisplayName string
}

// GuestPrefix marks a userId as belonging to a guest rather than a
// registered account (data model invariant P3). Guest transitions never
// call CallStore.
const GuestPrefix = "guest:"

// IsGuest reports whether userID carries the guest marker.
func IsGuest(userID string) bool {
	return strings.HasPrefix(userID, GuestPrefix)
}

// TokenVerifier validates a bearer token and returns the identity it
// authenticates, or an AuthenticationFailed error.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// CustomClaims is the JWT claim set this service expects from its issuer.
// A "guest" scope or a subject carrying GuestPrefix marks a guest identity;
// Name supplies the guest's display name when there is no registered
// account behind the token.
type CustomClaims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Validator verifies tokens issued by a hosted identity provider via its
// JWKS endpoint, with a background-refreshed key cache.
type Validator struct {
	keyFunc  jwt.Keyfunc
	issuer   string
	audience string
}

// NewValidator builds a Validator for the given issuer domain and audience,
// fetching (and caching, with periodic refresh) its JWKS.
func NewValidator(ctx context.Context, domain, audience string) (*Validator, error) {
	issuer := domain
	if !strings.HasPrefix(issuer, "http") {
		issuer = "https://" + issuer + "/"
	}
	jwksURL := strings.TrimSuffix(issuer, "/") + "/.well-known/jwks.json"

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(1*time.Hour)); err != nil {
		return nil, fmt.Errorf("registering jwks cache: %w", err)
	}
	if _, err := cache.Refresh(ctx, jwksURL); err != nil {
		return nil, fmt.Errorf("initial jwks fetch failed: %w", err)
	}

	keyFunc := func(token *jwt.Token) (interface{}, error) {
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("token missing kid header")
		}
		set, err := cache.Get(context.Background(), jwksURL)
		if err != nil {
			return nil, fmt.Errorf("fetching jwks: %w", err)
		}
		key, ok := set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("kid %q not found in jwks", kid)
		}
		var pubKey interface{}
		if err := key.Raw(&pubKey); err != nil {
			return nil, fmt.Errorf("materializing public key: %w", err)
		}
		return pubKey, nil
	}

	return &Validator{keyFunc: keyFunc, issuer: issuer, audience: audience}, nil
}

// Verify implements TokenVerifier.
func (v *Validator) Verify(ctx context.Context, token string) (*Identity, error) {
	claims := &CustomClaims{}
	_, err := jwt.ParseWithClaims(token, claims, v.keyFunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.AuthenticationFailed, "token validation failed", err)
	}

	userID := claims.Subject
	if strings.Contains(claims.Scope, "guest") && !IsGuest(userID) {
		userID = GuestPrefix + userID
	}

	return &Identity{
		UserID:      userID,
		Email:       claims.Email,
		DisplayName: claims.Name,
	}, nil
}

// MockValidator is a development-only verifier: it trusts the token's
// unsigned payload rather than checking a signature. Never used unless
// SKIP_AUTH=true.
type MockValidator struct{}

func (m *MockValidator) Verify(_ context.Context, token string) (*Identity, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return &Identity{UserID: GuestPrefix + "dev-user", DisplayName: "Dev User"}, nil
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, apperr.Wrap(apperr.AuthenticationFailed, "malformed mock token", err)
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, apperr.Wrap(apperr.AuthenticationFailed, "malformed mock token payload", err)
	}

	identity := &Identity{
		UserID:      "dev-user-123",
		DisplayName: "Dev User",
		Email:       "dev@example.com",
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		identity.UserID = sub
	}
	if name, ok := claims["name"].(string); ok && name != "" {
		identity.DisplayName = name
	}
	if email, ok := claims["email"].(string); ok && email != "" {
		identity.Email = email
	}
	if guest, ok := claims["guest"].(bool); ok && guest && !IsGuest(identity.UserID) {
		identity.UserID = GuestPrefix + identity.UserID
	}

	return identity, nil
}
