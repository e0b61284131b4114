package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vidfriends/friendgraph/internal/auth"
	"github.com/vidfriends/friendgraph/internal/logging"
)

// TokenVerifier resolves an access token to the user it was issued for.
type TokenVerifier interface {
	Authenticate(ctx context.Context, accessToken string) (string, error)
}

// RequireSession rejects requests without a valid bearer access token and
// stores the authenticated user on the request context.
func RequireSession(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing bearer token")
				return
			}

			userID, err := verifier.Authenticate(r.Context(), token)
			if err != nil {
				logging.FromContext(r.Context()).Info("access token rejected", slog.Any("error", err))
				unauthorized(w, "invalid or expired access token")
				return
			}

			ctx := auth.WithUserID(r.Context(), userID)
			ctx = logging.With(ctx, slog.String("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="friendgraph"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
