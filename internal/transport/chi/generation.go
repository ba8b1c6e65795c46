package chi

import "net/http"

// currentGeneration reports the id of the index being served, if any.
type currentGeneration interface {
	CurrentID() (string, bool)
}

// GenerationMiddleware stamps every response with the generation being served
// when the request arrives. Handlers that query the index overwrite it with the
// generation that actually answered.
func GenerationMiddleware(src currentGeneration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := src.CurrentID(); ok {
				w.Header().Set(GenerationHeader, id)
			}
			next.ServeHTTP(w, r)
		})
	}
}
