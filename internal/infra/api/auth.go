package api

import (
	"context"
	"net/http"
	"strings"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/ports/adapter"
	"cairo-metro-ticketing/internal/infra/logging"
	"cairo-metro-ticketing/internal/usecase"

	"github.com/rs/zerolog"
)

type claimsKey struct{}

// Authenticate requires a valid bearer token and stores its claims on the context.
func Authenticate(tokens adapter.TokenManager, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, r, logger, domain.ErrUnauthorized)
				return
			}
			claims, err := tokens.Parse(raw)
			if err != nil {
				writeError(w, r, logger, domain.ErrUnauthorized)
				return
			}
			noteUser(w, claims.UserID)
			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = logging.WithUserID(ctx, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := claimsFrom(r.Context())
			if c == nil {
				writeError(w, r, logger, domain.ErrUnauthorized)
				return
			}
			if !c.IsAdmin {
				writeError(w, r, logger, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok = strings.TrimSpace(tok)
	return tok, tok != ""
}

func claimsFrom(ctx context.Context) *adapter.Claims {
	c, _ := ctx.Value(claimsKey{}).(*adapter.Claims)
	return c
}

func actorFrom(ctx context.Context) usecase.Actor {
	c := claimsFrom(ctx)
	if c == nil {
		return usecase.Actor{}
	}
	return usecase.Actor{UserID: c.UserID, IsAdmin: c.IsAdmin}
}
