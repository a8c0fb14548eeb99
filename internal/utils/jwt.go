package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenUse separates short-lived ID tokens from session tokens so one can
// never be replayed as the other.
type TokenUse string

const (
	TokenUseID      TokenUse = "id"
	TokenUseSession TokenUse = "session"
)

var ErrTokenUse = errors.New("token used for the wrong purpose")

// TokenClaims are the claims carried by every token the service issues.
type TokenClaims struct {
	UserID string   `json:"user_id"`
	Role   string   `json:"role"`
	Use    TokenUse `json:"use"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 JWT for userID.
func GenerateToken(secret string, use TokenUse, userID uuid.UUID, role string, ttl time.Duration, now time.Time) (string, error) {
	claims := &TokenClaims{
		UserID: userID.String(),
		Role:   role,
		Use:    use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates tokenString and checks it was issued for use.
func ParseToken(secret string, use TokenUse, tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.Use != use {
		return nil, ErrTokenUse
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// UserUUID returns the parsed user id.
func (c *TokenClaims) UserUUID() uuid.UUID {
	id, _ := uuid.Parse(c.UserID)
	return id
}
