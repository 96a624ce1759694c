// Package auth issues and validates the bearer tokens that gate every
// session and chat operation.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultValidity is the lifetime of an issued token.
const DefaultValidity = 7 * 24 * time.Hour

// Claims is the signed claim set. Tokens are stateless: there is no
// revocation list, validity depends only on signature and expiry.
type Claims struct {
	jwt.RegisteredClaims
	OwnerID string `json:"uid"`
	Email   string `json:"email"`
}

// IssuedAtTime returns the iat claim, or the zero time when it is absent.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// ExpiresAtTime returns the exp claim, or the zero time when it is absent.
func (c *Claims) ExpiresAtTime() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

type TokenManager struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewTokenManager(secretKey string, validity time.Duration) *TokenManager {
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &TokenManager{secret: []byte(secretKey), validity: validity, now: time.Now}
}

// Issue signs a token for ownerID that expires validity after now.
func (m *TokenManager) Issue(ownerID, email string) (string, error) {
	jti, err := common.MakeRandHexString(16)
	if err != nil {
		return "", fmt.Errorf("token id: %w", err)
	}

	issuedAt := m.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.validity)),
		},
		OwnerID: ownerID,
		Email:   email,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature and expiry. Every failure is reported as
// common.ErrInvalidToken so callers cannot tell the reasons apart.
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !token.Valid || claims.OwnerID == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}

// ExtractBearer returns the token from a "Bearer <token>" header value.
// ok is false when the header is empty, uses another scheme or carries no token.
func ExtractBearer(header string) (token string, ok bool) {
	if !strings.HasPrefix(header, common.BearerPrefix) {
		return "", false
	}
	token = strings.TrimSpace(header[len(common.BearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}
