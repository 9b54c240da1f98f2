// Package auth provides functionality for generating and parsing JSON Web Tokens (JWT)
// used by the quiz platform. Token generation is needed by the local development
// backend and the tests; the client itself only ever decodes token payloads.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// secretKey signs tokens minted by the local development backend.
var secretKey = []byte("supersecretkey")

// TOKENEXP defines the token expiration duration.
const TOKENEXP = time.Hour * 24

// Claims represents the quiz platform's JWT claims: role, username, and user id,
// plus the standard registered claims.
type Claims struct {
	Role     string `json:"role,omitempty"`
	Username string `json:"username"`
	UserID   string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 token for the given identity.
// It sets the expiration time based on TOKENEXP.
func GenerateToken(username, role, userID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TOKENEXP)),
		},
		Role:     role,
		Username: username,
		UserID:   userID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ParseToken validates the provided JWT token string and parses its claims.
// Only the development backend calls this; the real backend does its own validation.
func ParseToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, jwt.ErrSignatureInvalid
}
