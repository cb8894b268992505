package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainuser "apexrentals/internal/domain/user"
)

var (
	ErrTokenInvalid  = errors.New("token: invalid")
	ErrSecretTooWeak = errors.New("token: signing secret must be at least 32 bytes")
)

// RandomTokenGenerator returns URL-safe random strings. It is used to make an
// ephemeral signing secret when none is configured.
type RandomTokenGenerator struct {
	Size int
}

func (g RandomTokenGenerator) NewToken() (string, error) {
	size := g.Size
	if size <= 0 {
		size = 32
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("token: entropy read failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 session tokens. A verified token is only half the
// check: the auth service also requires a live session stored under it.
type JWTIssuer struct {
	secret []byte
	issuer string
}

func NewJWTIssuer(secret, issuer string) (*JWTIssuer, error) {
	if len(secret) < 32 {
		return nil, ErrSecretTooWeak
	}
	if issuer == "" {
		issuer = "apexrentals"
	}
	return &JWTIssuer{secret: []byte(secret), issuer: issuer}, nil
}

func (i *JWTIssuer) Issue(userID domainuser.ID, role domainuser.Role, ttl time.Duration, now time.Time) (string, time.Time, error) {
	now = now.UTC()
	expires := now.Add(ttl)
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   string(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, expires, nil
}

// Verify checks signature, issuer and expiry and returns the subject and role.
func (i *JWTIssuer) Verify(token string) (domainuser.ID, domainuser.Role, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(i.issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	role, err := domainuser.ParseRole(claims.Role)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return domainuser.ID(claims.Subject), role, nil
}
