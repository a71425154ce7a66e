// Package identity handles sign-in and the bearer tokens the HTTP API
// authenticates with.
package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultClockSkew = 2 * time.Minute

// ErrInvalidToken is returned for tokens that fail signature, issuer,
// audience or timing checks.
var ErrInvalidToken = errors.New("invalid token")

// TokenConfig holds the signing parameters for issued tokens.
type TokenConfig struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration
	// ClockSkew tolerates small clock drift between services. Defaults to
	// two minutes when zero.
	ClockSkew time.Duration
}

// TokenManager issues and verifies HMAC-signed session tokens.
type TokenManager struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenManager builds a token manager from config.
func NewTokenManager(config TokenConfig) (*TokenManager, error) {
	if len(config.Secret) == 0 {
		return nil, errors.New("token secret must not be empty")
	}
	if config.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if config.ClockSkew == 0 {
		config.ClockSkew = defaultClockSkew
	}

	return &TokenManager{
		config: config,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Issue signs a token whose subject is the employee id.
func (m *TokenManager) Issue(employeeID string) (string, error) {
	if employeeID == "" {
		return "", errors.New("employee id must not be empty")
	}

	now := m.now()
	claims := jwt.RegisteredClaims{
		Issuer:    m.config.Issuer,
		Subject:   employeeID,
		Audience:  jwt.ClaimStrings{m.config.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.config.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the token signature and claims and returns the employee id.
func (m *TokenManager) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.config.Secret, nil
	},
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.config.ClockSkew),
		jwt.WithTimeFunc(func() time.Time { return m.now() }),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
