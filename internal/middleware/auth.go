package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/internal/services"
)

type ctxKey int

const claimsKey ctxKey = iota

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*services.Claims, error)
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequireAuth rejects requests without a valid bearer token and stores the claims in the context.
func RequireAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "No authentication token, access denied")
				return
			}
			claims, err := v.Verify(r.Context(), token)
			if err != nil {
				if !errors.Is(err, diary.ErrAuthRequired) {
					log.Error().Err(err).Msg("token verification failed")
				}
				writeError(w, http.StatusUnauthorized, "Token is not valid")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, claims *services.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func ClaimsFrom(ctx context.Context) *services.Claims {
	c, _ := ctx.Value(claimsKey).(*services.Claims)
	return c
}

// UserIDFrom returns the authenticated user's ID.
func UserIDFrom(ctx context.Context) (string, bool) {
	c := ClaimsFrom(ctx)
	if c == nil || c.UserID == "" {
		return "", false
	}
	return c.UserID, true
}
