package middleware

import (
	"net/http"
	"os"
	"strings"
)

// parseAllowedOrigins reads WEB_ALLOWED_ORIGINS (comma-separated).
func parseAllowedOrigins() map[string]struct{} {
	origins := make(map[string]struct{})
	for o := range strings.SplitSeq(os.Getenv("WEB_ALLOWED_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = struct{}{}
		}
	}
	return origins
}

func isLocalhostOrigin(origin string) bool {
	for _, scheme := range []string{"http://", "https://"} {
		rest, ok := strings.CutPrefix(origin, scheme)
		if !ok {
			continue
		}
		host, _, _ := strings.Cut(rest, ":")
		if host == "localhost" || host == "127.0.0.1" {
			return true
		}
	}
	return false
}

func isOriginAllowed(origin string, allowed map[string]struct{}) bool {
	if origin == "" {
		return false
	}
	if isLocalhostOrigin(origin) {
		return true
	}
	_, ok := allowed[origin]
	return ok
}

// CORS lets browser dashboards read the relay. Local origins are always
// allowed, others must be listed in WEB_ALLOWED_ORIGINS.
func CORS() func(http.Handler) http.Handler {
	allowed := parseAllowedOrigins()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); isOriginAllowed(origin, allowed) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Cache-Control, Last-Event-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
