package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestParseBearerToken(t *testing.T) {
	assert.Equal(t, "abc", ParseBearerToken("Bearer abc"))
	assert.Equal(t, "abc", ParseBearerToken("bearer abc"))
	assert.Equal(t, "", ParseBearerToken("Token abc"))
	assert.Equal(t, "", ParseBearerToken(""))
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	name := "Ada"
	token, err := IssueAccessToken(Identity{Subject: "u1", Role: RoleManager, Email: "ada@example.com", Name: &name}, "secret", time.Minute)
	require.NoError(t, err)

	claims, err := VerifyAccessToken(token, "secret")
	require.NoError(t, err)
	identity := IdentityFromClaims(claims)
	assert.Equal(t, "u1", identity.Subject)
	assert.Equal(t, RoleManager, identity.Role)
	require.NotNil(t, identity.Name)
	assert.Equal(t, "Ada", *identity.Name)

	_, err = VerifyAccessToken(token, "other")
	assert.Error(t, err)
}

func TestVerifyAccessTokenRejectsExpiredAndAnonymous(t *testing.T) {
	expired, err := IssueAccessToken(Identity{Subject: "u1"}, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = VerifyAccessToken(expired, "secret")
	assert.Error(t, err)

	anonymous, err := IssueAccessToken(Identity{}, "secret", time.Minute)
	require.NoError(t, err)
	_, err = VerifyAccessToken(anonymous, "secret")
	assert.Error(t, err)
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{Subject: "u9"})
	identity, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "u9", identity.Subject)

	_, ok = IdentityFromContext(WithIdentity(context.Background(), Identity{Subject: "  "}))
	assert.False(t, ok)
}

func TestVerifyServiceKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("k3y"), bcrypt.MinCost)
	require.NoError(t, err)

	assert.True(t, VerifyServiceKey(string(hash), "k3y"))
	assert.False(t, VerifyServiceKey(string(hash), "nope"))
	assert.False(t, VerifyServiceKey("", "k3y"))
}
