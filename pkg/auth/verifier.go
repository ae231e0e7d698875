package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/dgrijalva/jwt-go"
	"time"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrMalformed        = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrInvalidSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrExpired          = fmt.Errorf("%w: expired", ErrInvalidToken)
)

var hmacMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

type Claims struct {
	UserId    string
	Email     string
	ExpiresAt time.Time
	Raw       jwt.MapClaims
}

// Verify checks an HMAC-signed token against the secret at the given instant.
// The library's own time checks are skipped so the outcome depends only on the arguments.
func Verify(token string, secret []byte, now time.Time) (*Claims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrMalformed)
	}
	parser := jwt.Parser{
		ValidMethods:         hmacMethods,
		SkipClaimsValidation: true,
	}
	mapClaims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(token, mapClaims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	expiresAt, found, err := numericDate(mapClaims, "exp")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: exp claim is required", ErrMalformed)
	}
	if !now.Before(expiresAt) {
		return nil, fmt.Errorf("%w: at %v", ErrExpired, expiresAt.UTC())
	}

	notBefore, found, err := numericDate(mapClaims, "nbf")
	if err != nil {
		return nil, err
	}
	if found && now.Before(notBefore) {
		return nil, fmt.Errorf("%w: not valid before %v", ErrExpired, notBefore.UTC())
	}

	return &Claims{
		UserId:    firstString(mapClaims, "userId", "user_id", "id", "sub"),
		Email:     firstString(mapClaims, "email"),
		ExpiresAt: expiresAt,
		Raw:       mapClaims,
	}, nil
}

func classify(err error) error {
	validationErr, ok := err.(*jwt.ValidationError)
	if !ok {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	switch {
	case validationErr.Errors&jwt.ValidationErrorMalformed != 0:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case validationErr.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorUnverifiable) != 0:
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

func numericDate(claims jwt.MapClaims, name string) (time.Time, bool, error) {
	raw, found := claims[name]
	if !found {
		return time.Time{}, false, nil
	}
	var seconds float64
	switch value := raw.(type) {
	case float64:
		seconds = value
	case json.Number:
		parsed, err := value.Float64()
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %s claim is not numeric", ErrMalformed, name)
		}
		seconds = parsed
	default:
		return time.Time{}, false, fmt.Errorf("%w: %s claim is not numeric", ErrMalformed, name)
	}
	return time.Unix(int64(seconds), 0), true, nil
}

func firstString(claims jwt.MapClaims, names ...string) string {
	for _, name := range names {
		switch value := claims[name].(type) {
		case string:
			if value != "" {
				return value
			}
		case float64:
			return fmt.Sprintf("%.0f", value)
		}
	}
	return ""
}

// TokenVerifier binds the shared secret and a clock.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

func NewTokenVerifier(secret string, now func() time.Time) *TokenVerifier {
	if secret == "" {
		panic("Secret is required to create TokenVerifier")
	}
	if now == nil {
		now = time.Now
	}
	return &TokenVerifier{
		secret: []byte(secret),
		now:    now,
	}
}

func (verifier *TokenVerifier) Verify(token string) (*Claims, error) {
	return Verify(token, verifier.secret, verifier.now())
}
