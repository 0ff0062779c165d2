// internal/app/system/auth/tokens.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenManager issues and verifies the signed bearer tokens the SPA
// client presents on every request. Tokens carry only the user id and
// role; the fresh user record is fetched per request so approval and
// role changes take effect immediately.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	log    *zap.Logger
}

// claims is the JWT payload for Eventra tokens.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewTokenManager validates the signing secret and returns a manager.
func NewTokenManager(secret string, ttl time.Duration, logger *zap.Logger) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty; provide ≥32 random chars")
	}
	if len(secret) < 32 {
		logger.Warn("token secret is short; 32+ chars recommended",
			zap.Int("length", len(secret)))
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, log: logger}, nil
}

// Issue signs a token for the given user id and role.
func (tm *TokenManager) Issue(userID, role string) (string, error) {
	now := time.Now().UTC()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a bearer token and returns the user id it was issued
// for. Expired, tampered, or wrong-algorithm tokens all fail.
func (tm *TokenManager) Verify(tokenText string) (string, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(tokenText, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return tm.secret, nil
	})
	if err != nil {
		return "", err
	}
	if !tok.Valid || c.Subject == "" {
		return "", errors.New("invalid token")
	}
	return c.Subject, nil
}
