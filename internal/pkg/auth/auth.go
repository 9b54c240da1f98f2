// Package auth also provides HTTP middleware for validating bearer tokens on
// the local development backend, mirroring the contract of the real service.
package auth

import (
	"context"
	"encoding/json"
	"levelup/internal/models"
	"net/http"
	"strings"
)

// contextKey is a custom type used for storing values in a context without risking collisions.
type contextKey string

// ContextClaims is the key used to store and retrieve token claims from the request context.
const ContextClaims contextKey = "contextClaims"

// CheckJWTMiddleware validates the Authorization header of incoming requests.
// It checks for the presence of a Bearer token, parses it, and stores the claims
// in the request context. If validation fails it returns an error response with
// the appropriate HTTP status code.
func CheckJWTMiddleware() func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			if authHeader == "" {
				writeErrorResponse(w, "missing auth header", http.StatusUnauthorized)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeErrorResponse(w, "invalid auth header", http.StatusUnauthorized)
				return
			}

			claims, err := ParseToken(parts[1])
			if err != nil {
				writeErrorResponse(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ContextClaims, claims)
			h.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// ClaimsFromContext retrieves the token claims stored by CheckJWTMiddleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ContextClaims).(*Claims)
	return claims, ok
}

// writeErrorResponse writes a JSON-formatted error response to the HTTP response writer.
func writeErrorResponse(res http.ResponseWriter, errorInfo string, statusCode int) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	json.NewEncoder(res).Encode(models.ErrorResponse{Errors: errorInfo})
}
