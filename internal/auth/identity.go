package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Identity is the authenticated caller as seen by services.
type Identity struct {
	Subject string
	Role    UserRole
	Email   string
	Name    *string
}

func IdentityFromClaims(claims *Claims) Identity {
	return Identity{
		Subject: claims.Subject,
		Role:    claims.Role,
		Email:   claims.Email,
		Name:    claims.Name,
	}
}

type identityKey struct{}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(Identity)
	if !ok || strings.TrimSpace(identity.Subject) == "" {
		return Identity{}, false
	}
	return identity, true
}

// VerifyServiceKey compares a presented API key with a bcrypt hash.
func VerifyServiceKey(hash string, presented string) bool {
	if hash == "" || presented == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(presented)) == nil
}
