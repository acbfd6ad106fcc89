package web

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const authUser = "convtrack"

// authMiddleware checks basic auth against bcrypt hash, ping and metrics are open
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		username, password, ok := r.BasicAuth()
		if ok && username == authUser {
			if err := bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password)); err == nil {
				next.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("WWW-Authenticate", `Basic realm="convtrack"`)
		s.writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	})
}
