// Package identity resolves bearer credentials into member ids. Token
// issuance belongs to the identity provider; this adapter only verifies.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"

	"github.com/golang-jwt/jwt/v5"
)

type memberClaims struct {
	jwt.RegisteredClaims
	MemberID string `json:"member_id,omitempty"`
}

// JWTResolver verifies HS256 bearer tokens. The member id is the member_id
// claim when present, otherwise the subject.
type JWTResolver struct {
	Secret   []byte
	Issuer   string
	Audience string
	Leeway   time.Duration
}

func (r JWTResolver) ResolveMember(_ context.Context, bearer string) (string, error) {
	token := strings.TrimSpace(bearer)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	if token == "" || len(r.Secret) == 0 {
		return "", domainerrors.ErrUnauthenticated
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(r.Leeway),
	}
	if r.Issuer != "" {
		options = append(options, jwt.WithIssuer(r.Issuer))
	}
	if r.Audience != "" {
		options = append(options, jwt.WithAudience(r.Audience))
	}
	claims := &memberClaims{}
	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return r.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", domainerrors.ErrUnauthenticated, err)
	}
	memberID := strings.TrimSpace(claims.MemberID)
	if memberID == "" {
		memberID = strings.TrimSpace(claims.Subject)
	}
	if memberID == "" {
		return "", fmt.Errorf("%w: token carries no member id", domainerrors.ErrUnauthenticated)
	}
	return memberID, nil
}

// Issue signs a short-lived token for memberID. Used by tooling and tests.
func (r JWTResolver) Issue(memberID string, now time.Time, ttl time.Duration) (string, error) {
	claims := memberClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			Issuer:    r.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		MemberID: memberID,
	}
	if r.Audience != "" {
		claims.Audience = jwt.ClaimStrings{r.Audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.Secret)
}

// StaticResolver treats the bearer value itself as the member id. It backs
// the in-memory module and local development.
type StaticResolver struct{}

func (StaticResolver) ResolveMember(_ context.Context, bearer string) (string, error) {
	token := strings.TrimSpace(bearer)
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		token = strings.TrimSpace(token[len("bearer "):])
	}
	if token == "" {
		return "", domainerrors.ErrUnauthenticated
	}
	return token, nil
}

var _ ports.IdentityResolver = JWTResolver{}
var _ ports.IdentityResolver = StaticResolver{}
