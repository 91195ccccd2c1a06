package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"

	apierrors "kbpulse/internal/errors"
)

type apiClientKey struct{}

// APIKeyHeader carries the key checked by APIKeyAuth
const APIKeyHeader = "X-API-Key"

// APIKeyAuth requires one of validKeys (key → client name) in the X-API-Key
// header. An empty map lets every request through.
func APIKeyAuth(logger *slog.Logger, validKeys map[string]string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(validKeys) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			apiKey := r.Header.Get(APIKeyHeader)

			client, ok := lookupKey(validKeys, apiKey)
			if !ok {
				detail := "Invalid API key"
				if apiKey == "" {
					detail = "API key required"
				}
				logger.WarnContext(ctx, "API key rejected",
					slog.String("reason", detail),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
				)

				problem := apierrors.NewProblemDetails(
					http.StatusUnauthorized,
					"/errors/unauthorized",
					"Unauthorized",
					detail,
					r.URL.Path,
				).WithExtension("trace_id", GetRequestID(ctx))
				problem.Write(w)
				return
			}

			ctx = context.WithValue(ctx, apiClientKey{}, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// APIClient returns the client name authenticated by APIKeyAuth
func APIClient(ctx context.Context) string {
	client, _ := ctx.Value(apiClientKey{}).(string)
	return client
}

// lookupKey compares in constant time against every configured key
func lookupKey(validKeys map[string]string, apiKey string) (string, bool) {
	if apiKey == "" {
		return "", false
	}
	found := ""
	ok := false
	for key, client := range validKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			found, ok = client, true
		}
	}
	return found, ok
}
