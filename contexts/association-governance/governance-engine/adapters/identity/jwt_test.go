package identity

import (
	"context"
	"testing"
	"time"

	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTResolverAcceptsSignedToken(t *testing.T) {
	resolver := JWTResolver{Secret: []byte("test-secret"), Issuer: "agora-identity", Audience: "governance"}
	token, err := resolver.Issue("m-07", time.Now(), time.Hour)
	require.NoError(t, err)

	memberID, err := resolver.ResolveMember(context.Background(), "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "m-07", memberID)
}

func TestJWTResolverRejectsBadTokens(t *testing.T) {
	resolver := JWTResolver{Secret: []byte("test-secret"), Issuer: "agora-identity"}
	expired, err := resolver.Issue("m-07", time.Now().Add(-2*time.Hour), time.Hour)
	require.NoError(t, err)
	foreign, err := JWTResolver{Secret: []byte("other-secret"), Issuer: "agora-identity"}.Issue("m-07", time.Now(), time.Hour)
	require.NoError(t, err)
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "m-07",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":       "",
		"expired":     expired,
		"wrong key":   foreign,
		"none alg":    noneAlg,
		"not a token": "definitely-not-a-jwt",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := resolver.ResolveMember(context.Background(), token)
			assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
		})
	}
}

func TestStaticResolver(t *testing.T) {
	memberID, err := StaticResolver{}.ResolveMember(context.Background(), "Bearer m-01")
	require.NoError(t, err)
	assert.Equal(t, "m-01", memberID)
	_, err = StaticResolver{}.ResolveMember(context.Background(), "  ")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}
