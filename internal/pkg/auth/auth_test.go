package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	token, err := GenerateToken("alice", "user", "user-1")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	token, err := GenerateToken("alice", "user", "user-1")
	require.NoError(t, err)

	_, err = ParseToken(token + "x")
	assert.Error(t, err)
}

func TestDecodeIdentity(t *testing.T) {
	token, err := GenerateToken("alice", "admin", "user-1")
	require.NoError(t, err)

	identity, err := DecodeIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, "admin", identity.Role)
	assert.Equal(t, "user-1", identity.UserID)
}

// signWithClaims mints a token with arbitrary payload keys to exercise the
// user id fallbacks older backends produce.
func signWithClaims(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("any key, decoding is unverified"))
	require.NoError(t, err)
	return signed
}

func TestDecodeIdentityUserIDFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		claims jwt.MapClaims
		userID string
	}{
		{name: "userId", claims: jwt.MapClaims{"username": "alice", "userId": "u1"}, userID: "u1"},
		{name: "id fallback", claims: jwt.MapClaims{"username": "alice", "id": "u2"}, userID: "u2"},
		{name: "_id fallback", claims: jwt.MapClaims{"username": "alice", "_id": "u3"}, userID: "u3"},
		{name: "userId wins", claims: jwt.MapClaims{"username": "alice", "userId": "u1", "id": "u2", "_id": "u3"}, userID: "u1"},
		{name: "no id at all", claims: jwt.MapClaims{"username": "alice"}, userID: ""},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			identity, err := DecodeIdentity(signWithClaims(t, test.claims))
			require.NoError(t, err)
			assert.Equal(t, test.userID, identity.UserID)
		})
	}
}

func TestDecodeIdentityIgnoresSignature(t *testing.T) {
	// A foreign signing key must not matter: decoding is explicitly not a
	// security boundary on the client.
	token := signWithClaims(t, jwt.MapClaims{"username": "alice", "userId": "u1"})
	identity, err := DecodeIdentity(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
}

func TestCheckJWTMiddleware(t *testing.T) {
	protected := CheckJWTMiddleware()(http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		claims, ok := ClaimsFromContext(req.Context())
		require.True(t, ok)
		assert.Equal(t, "alice", claims.Username)
		res.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Basic abc")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := GenerateToken("alice", "user", "user-1")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestTokenExpiry(t *testing.T) {
	token, err := GenerateToken("alice", "user", "user-1")
	require.NoError(t, err)

	claims, err := ParseToken(token)
	require.NoError(t, err)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(TOKENEXP), claims.ExpiresAt.Time, time.Minute)
}
