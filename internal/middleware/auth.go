package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pixhy/voizchat/internal/model/user"
	"github.com/pixhy/voizchat/pkg/utils"
)

// Authenticator resolves a bearer credential to an account.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (user.User, error)
}

type contextKey struct{}

var userKey contextKey

// RequireAuth rejects requests without a valid bearer token and stores the
// authenticated account in the request context.
func RequireAuth(gate Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				utils.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			account, err := gate.Authenticate(r.Context(), token)
			if err != nil {
				utils.RespondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, account)))
		})
	}
}

// UserFrom returns the authenticated account stored by RequireAuth.
func UserFrom(ctx context.Context) (user.User, bool) {
	account, ok := ctx.Value(userKey).(user.User)
	return account, ok
}
