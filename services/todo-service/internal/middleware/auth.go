package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/response"
	"github.com/vasapolrittideah/task-wand-api/shared/auth"
)

type contextKey struct{}

var identityKey = contextKey{}

// TokenVerifier verifies bearer tokens.
type TokenVerifier interface {
	VerifyToken(token string) (auth.Identity, error)
}

// Authenticate rejects requests without a valid bearer token and attaches the verified
// identity to the request context.
func Authenticate(verifier TokenVerifier, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.VerifyToken(bearerToken(r))
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenMissing):
					response.Fail(w, http.StatusUnauthorized, "Token is not provided")
				case errors.Is(err, auth.ErrTokenExpired):
					response.Fail(w, http.StatusUnauthorized, "Token has expired")
				case errors.Is(err, auth.ErrTokenInvalid):
					response.Fail(w, http.StatusUnauthorized, "Token is not valid")
				default:
					logger.Error().Err(err).Msg("failed to verify access token")
					response.Fail(w, http.StatusInternalServerError, "Internal server error")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity attached by Authenticate.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(auth.Identity)
	return identity, ok
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header, or ""
// when the header is absent or uses another scheme.
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
