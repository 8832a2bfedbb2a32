package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/heartmarshall/wordqueue/pkg/ctxutil"
)

// Auth rejects requests that do not carry the shared secret, either as
// "Authorization: Bearer <token>" or as the "token" query parameter.
// The header wins when both are present.
func Auth(token string) Middleware {
	want := []byte(token)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, source := extractToken(r)
			if got == "" || len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := ctxutil.WithAuthSource(r.Context(), source)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request) (string, string) {
	if t := extractBearerToken(r); t != "" {
		return t, ctxutil.AuthSourceHeader
	}
	if t := r.URL.Query().Get("token"); t != "" {
		return t, ctxutil.AuthSourceQuery
	}
	return "", ""
}

func extractBearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
