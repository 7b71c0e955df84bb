package middleware

import (
	"net/http"
	"os"
)

// AdminAuth protects the management API with HTTP Basic auth when
// WORKBENCH_ADMIN_PASSWORD is set. With no password configured all
// requests pass through (local single-user setup).
func AdminAuth() func(next http.Handler) http.Handler {
	password := os.Getenv("WORKBENCH_ADMIN_PASSWORD")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if password == "" {
				next.ServeHTTP(w, r)
				return
			}
			_, pass, ok := r.BasicAuth()
			if !ok || pass != password {
				w.Header().Set("WWW-Authenticate", `Basic realm="SuiteQL Workbench"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
