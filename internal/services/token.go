package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
)

// Claims carried by access tokens. IssuedAtMs refines the whole-second iat so
// revocation can tell apart tokens issued within the same second.
type Claims struct {
	UserID     string `json:"userId"`
	IssuedAtMs int64  `json:"iatMs,omitempty"`
	jwt.RegisteredClaims
}

// IssuedAtMillis returns the issue time in Unix milliseconds.
func (c *Claims) IssuedAtMillis() int64 {
	if c.IssuedAtMs > 0 {
		return c.IssuedAtMs
	}
	if c.IssuedAt != nil {
		return c.IssuedAt.UnixMilli()
	}
	return 0
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret    []byte
	expiresIn time.Duration
	now       func() time.Time
}

func NewTokenManager(secret string, expiresIn time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiresIn: expiresIn, now: time.Now}
}

func (m *TokenManager) ExpiresIn() time.Duration {
	return m.expiresIn
}

// Issue signs a token for userID.
func (m *TokenManager) Issue(userID string) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:     userID,
		IssuedAtMs: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiresIn)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Parse verifies the signature and expiry of tokenStr.
func (m *TokenManager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized("Token expired")
		}
		return nil, apperr.Unauthorized("Invalid token")
	}
	if claims.UserID == "" {
		return nil, apperr.Unauthorized("Invalid token")
	}
	return claims, nil
}
