package serializers

import (
	"github.com/Alcereo/inventory-gateway/pkg/common"
	"github.com/dgrijalva/jwt-go"
	"time"
)

type jwtTokenIssuer struct {
	hmacSecret string
	ttl        time.Duration
}

func NewJwtTokenIssuer(hmacSecret string, ttl time.Duration) *jwtTokenIssuer {
	if hmacSecret == "" {
		panic("Secret is required to create token issuer")
	}
	return &jwtTokenIssuer{
		hmacSecret: hmacSecret,
		ttl:        ttl,
	}
}

func (issuer *jwtTokenIssuer) Issue(identity common.Identity) (string, error) {
	return issuer.IssueAt(identity, time.Now())
}

// IssueAt signs a token valid from issuedAt for the issuer's ttl.
func (issuer *jwtTokenIssuer) IssueAt(identity common.Identity, issuedAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": identity.Id,
		"email":  identity.Email,
		"iat":    issuedAt.Unix(),
		"exp":    issuedAt.Add(issuer.ttl).Unix(),
	})
	return token.SignedString([]byte(issuer.hmacSecret))
}
