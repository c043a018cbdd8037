// Package middleware resolves who is calling: an authenticated user from a
// bearer token or an anonymous visitor from a session cookie.
package middleware

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rogerio-castellano/storefront/internal/auth"
	rl "github.com/rogerio-castellano/storefront/internal/http/rate_limiter"
	"github.com/rogerio-castellano/storefront/internal/models"
)

const SessionCookie = "storefront_session"

type contextKey string

const (
	identityKey = contextKey("identity")
	claimsKey   = contextKey("claims")
)

// IdentityFrom returns the cart owner resolved by Identity.
func IdentityFrom(ctx context.Context) models.Identity {
	id, _ := ctx.Value(identityKey).(models.Identity)
	return id
}

// ClaimsFrom returns the token claims of an authenticated request.
func ClaimsFrom(ctx context.Context) (*auth.TokenClaims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.TokenClaims)
	return c, ok
}

// WithIdentity stores owner in ctx.
func WithIdentity(ctx context.Context, owner models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, owner)
}

// Identity attaches the caller's identity to the request. A valid bearer
// token wins; otherwise the session cookie is used, and issued when absent.
// An invalid bearer token is rejected.
func Identity(tokens *auth.Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if header := r.Header.Get("Authorization"); header != "" {
				tokenStr, found := strings.CutPrefix(header, "Bearer ")
				if !found {
					http.Error(w, "missing or invalid token", http.StatusUnauthorized)
					return
				}
				claims, err := tokens.Parse(tokenStr)
				if err != nil {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				userID, _ := claims.UserID()
				ctx = context.WithValue(ctx, claimsKey, claims)
				ctx = WithIdentity(ctx, models.UserIdentity(userID))
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, models.SessionIdentity(sessionID(w, r)))))
		})
	}
}

func sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
	return id
}

func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFrom(r.Context()); !ok {
			http.Error(w, "missing or invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole lets through authenticated callers holding role.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFrom(r.Context())
			if claims.Role != role {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// RateLimit throttles per identity, falling back to the client address.
func RateLimit(l *rl.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if owner := IdentityFrom(r.Context()); !owner.IsZero() {
				key = owner.Key()
			}
			if !l.Allow(key) {
				log.Printf("⚠️ Rate limit exceeded for %s on %s", key, r.URL.Path)
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
