/**
 * @description
 * Authentication middleware and role guard. The principal is resolved on
 * every request from the bearer token's subject: the session cache gives a
 * warm start but the staffs profile stays authoritative, so a deleted or
 * demoted account loses access on its next request. RequireRole returns
 * 401 for a missing principal and for a role mismatch alike.
 *
 * @dependencies
 * - github.com/golang-jwt/jwt/v5: HS256 token verification.
 */
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nexapay/ambassador-service/internal/domain"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
	claimsContextKey  contextKey = "tokenClaims"
)

// TokenClaims is the subset of the verified token the handlers need.
type TokenClaims struct {
	JTI       string
	ExpiresAt time.Time
}

// PrincipalResolver is the auth surface the middleware needs from the app
// layer.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, uid uuid.UUID) (*domain.Session, error)
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	JWTSecret() []byte
}

// Authenticator verifies the bearer token and resolves the principal into
// the request context. Any failure short-circuits with 401.
func Authenticator(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return resolver.JWTSecret(), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			uid, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if revoked, err := resolver.IsTokenRevoked(r.Context(), claims.ID); err != nil || revoked {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			session, err := resolver.ResolvePrincipal(r.Context(), uid)
			if err != nil || session == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			tokenClaims := &TokenClaims{JTI: claims.ID}
			if claims.ExpiresAt != nil {
				tokenClaims.ExpiresAt = claims.ExpiresAt.Time
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, session)
			ctx = context.WithValue(ctx, claimsContextKey, tokenClaims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a route group. Missing principal and wrong role both
// yield 401; they are deliberately not distinguished.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil || session.Role != role {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext returns the resolved principal, or nil outside an
// authenticated route.
func SessionFromContext(ctx context.Context) *domain.Session {
	session, _ := ctx.Value(sessionContextKey).(*domain.Session)
	return session
}

// ClaimsFromContext returns the verified token claims, or nil outside an
// authenticated route.
func ClaimsFromContext(ctx context.Context) *TokenClaims {
	claims, _ := ctx.Value(claimsContextKey).(*TokenClaims)
	return claims
}
