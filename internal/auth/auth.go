// Package auth consumes the session contract: a JWT carrying the user id and
// profile fields the checkout flow needs. Absence of a user id means "not
// authenticated" and blocks checkout entry.
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	RoleCustomer = "customer"
	RoleStaff    = "staff"
)

// Claims is the session payload. Address and Phone come from the user's
// profile and pre-fill the checkout delivery form.
type Claims struct {
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	jwt.StandardClaims
}

type contextKey string

const claimsContextKey = contextKey("session")

// FromContext returns the session claims attached by Middleware.
func FromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*Claims)
	return claims, ok
}

// GenerateToken signs a session token. Used by the auth collaborator and by
// tests; this service itself never issues customer credentials.
func GenerateToken(key []byte, claims Claims, ttl time.Duration) (string, error) {
	claims.ExpiresAt = time.Now().Add(ttl).Unix()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &claims)
	return token.SignedString(key)
}

// Middleware verifies the bearer token and attaches the session claims to
// the request context. Requests without a valid session are rejected; every
// pipeline route requires an authenticated user.
func Middleware(key []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(*jwt.Token) (interface{}, error) {
				return key, nil
			})
			if err != nil || !token.Valid || claims.UserID == "" {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireStaff gates staff-only routes such as status updates.
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		if !ok || claims.Role != RoleStaff {
			http.Error(w, "Forbidden: staff only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
