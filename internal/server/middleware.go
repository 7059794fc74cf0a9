package server

import (
	"net/http"
)

// RequireAuth guards protected routes. Requests without a valid, unexpired
// session cookie are rejected with 401 before the handler runs.
func (s *Server) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.Sessions.Check(s.sessionToken(r)) {
			s.respondError(w, http.StatusUnauthorized, "Nicht authentifiziert")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Recoverer converts panics into a JSON 500 response instead of letting
// them kill the connection
func (s *Server) Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.Logger.Error("panic in handler", "method", r.Method, "path", r.URL.Path, "panic", rec)
				s.respondError(w, http.StatusInternalServerError, "Interner Server-Fehler")
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// sessionToken extracts the session token from the request cookie.
// Returns the empty string when no cookie is present.
func (s *Server) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
