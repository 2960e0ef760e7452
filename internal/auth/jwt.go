// Package auth issues and checks the HS256 bearer tokens carried on every RPC.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims carries the standard claims plus the authenticated user.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
}

func GenerateToken(userID uuid.UUID, secret []byte, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("generate token: %w", ErrInvalidToken)
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID.String(),
	})
	return token.SignedString(secret)
}

// ParseToken verifies the signature and expiry and returns the user id.
func ParseToken(tokenString string, secret []byte) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return uuid.Nil, ErrTokenExpired
	case err != nil:
		return uuid.Nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	case !token.Valid:
		return uuid.Nil, ErrInvalidToken
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
