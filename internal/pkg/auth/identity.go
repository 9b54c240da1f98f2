package auth

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

// ErrNoUserID indicates the token payload carries no resolvable user id.
var ErrNoUserID = errors.New("auth: no user id in token")

// Identity is the non-authoritative view of the player extracted from the
// bearer token payload. It exists purely for UI branching (admin screens,
// chat identity) and is NOT a security boundary: the signature is never
// verified client-side.
type Identity struct {
	Role     string
	Username string
	UserID   string
}

// rawClaims mirrors the payload fields the backend is known to emit. Older
// tokens carry the user id under "id" or "_id" instead of "userId".
type rawClaims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	UserID   string `json:"userId"`
	ID       string `json:"id"`
	MongoID  string `json:"_id"`
	jwt.RegisteredClaims
}

// DecodeIdentity extracts role, username, and user id from the token payload
// without verifying the signature.
func DecodeIdentity(tokenStr string) (Identity, error) {
	var claims rawClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(tokenStr, &claims); err != nil {
		return Identity{}, err
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.ID
	}
	if userID == "" {
		userID = claims.MongoID
	}

	return Identity{Role: claims.Role, Username: claims.Username, UserID: userID}, nil
}
