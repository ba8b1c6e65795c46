package chi

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/carefinder/internal/transport/api"
)

// exemptPaths bypass authentication so probes and scrapers need no key.
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

const bearerPrefix = "Bearer "

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// If apiKeys is empty, authentication is disabled (pass-through).
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			token, problem := bearerToken(r)
			if problem == "" {
				if _, ok := validKeys[token]; !ok {
					problem = "invalid api key"
				}
			}
			if problem != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="carefinder"`)
				writeError(w, http.StatusUnauthorized, api.ErrorResponseCodeUnauthorized, problem)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token, or describes why the header is unusable.
func bearerToken(r *http.Request) (token, problem string) {
	auth := r.Header.Get("Authorization")
	switch {
	case auth == "":
		return "", "missing authorization header"
	case !strings.HasPrefix(auth, bearerPrefix):
		return "", "authorization header must use Bearer scheme"
	}
	return auth[len(bearerPrefix):], ""
}
