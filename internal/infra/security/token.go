package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/ports/adapter"
)

var _ adapter.TokenManager = (*JWTManager)(nil)

const issuer = "cairo-metro"

type riderClaims struct {
	Admin bool `json:"adm"`
	jwt.RegisteredClaims
}

// JWTManager issues and verifies HS256 bearer tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) (*JWTManager, error) {
	if len(secret) < 16 {
		return nil, errors.New("jwt secret must be at least 16 bytes")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (m *JWTManager) Issue(c adapter.Claims) (string, time.Time, error) {
	if c.UserID == "" {
		return "", time.Time{}, domain.ErrInvalidArgument
	}
	now := m.now()
	exp := now.Add(m.ttl)
	claims := riderClaims{
		Admin: c.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse rejects anything but a valid, unexpired HS256 token from this issuer.
func (m *JWTManager) Parse(token string) (*adapter.Claims, error) {
	claims := &riderClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return &adapter.Claims{UserID: claims.Subject, IsAdmin: claims.Admin}, nil
}
