package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"hookman/internal/dispatch"
	"hookman/internal/session"
	"hookman/internal/store"
	"hookman/web"

	"github.com/go-chi/chi/v5"
)

// webhookRequest is the payload shape for create and update
type webhookRequest struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// loginRequest uses a pointer so a missing password field can be told
// apart from an empty one
type loginRequest struct {
	Password *string `json:"password"`
}

// HandleIndex serves the embedded front-end entry file
func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	content, err := web.Files.ReadFile("index.html")
	if err != nil {
		s.Logger.Error("failed to read embedded index.html", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Interner Server-Fehler")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(content); err != nil {
		s.Logger.Error("failed to write index response", "error", err)
	}
}

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleLogin checks the password and establishes a session
func (s *Server) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == nil {
		s.respondError(w, http.StatusBadRequest, "Passwort erforderlich")
		return
	}

	token, ok := s.Sessions.Login(*req.Password)
	if !ok {
		s.respondError(w, http.StatusUnauthorized, "Falsches Passwort")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(session.DefaultTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleLogout invalidates the current session. Always succeeds.
func (s *Server) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if token := s.sessionToken(r); token != "" {
		s.Sessions.Logout(token)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleStatus reports whether the request carries a valid session
func (s *Server) HandleStatus(w http.ResponseWriter, r *http.Request) {
	authenticated := s.Sessions.Check(s.sessionToken(r))
	s.respondJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}

// HandleListWebhooks returns all webhooks sorted by name
func (s *Server) HandleListWebhooks(w http.ResponseWriter, r *http.Request) {
	webhooks, err := s.Store.List(r.Context())
	if err != nil {
		s.Logger.Error("failed to list webhooks", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Fehler beim Laden der Webhooks")
		return
	}

	if webhooks == nil {
		webhooks = []store.Webhook{}
	}

	s.respondJSON(w, http.StatusOK, webhooks)
}

// HandleCreateWebhook creates a new webhook from the request payload
func (s *Server) HandleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Name und URL sind erforderlich")
		return
	}

	id, err := s.Store.Create(r.Context(), store.Input{
		Name:        req.Name,
		URL:         req.URL,
		Method:      req.Method,
		Description: req.Description,
	})
	if err != nil {
		var validationErr *store.ValidationError
		if errors.As(err, &validationErr) {
			s.respondError(w, http.StatusBadRequest, validationErr.Message)
			return
		}
		s.Logger.Error("failed to create webhook", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Webhook konnte nicht erstellt werden")
		return
	}

	s.Logger.Info("webhook created", "name", req.Name, "id", id)
	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "success": true})
}

// HandleUpdateWebhook replaces all mutable fields of a webhook
func (s *Server) HandleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := s.webhookID(w, r)
	if !ok {
		return
	}

	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Name und URL sind erforderlich")
		return
	}

	err := s.Store.Update(r.Context(), id, store.Input{
		Name:        req.Name,
		URL:         req.URL,
		Method:      req.Method,
		Description: req.Description,
	})
	if err != nil {
		var validationErr *store.ValidationError
		switch {
		case errors.As(err, &validationErr):
			s.respondError(w, http.StatusBadRequest, validationErr.Message)
		case errors.Is(err, store.ErrNotFound):
			s.respondError(w, http.StatusNotFound, "Webhook nicht gefunden")
		default:
			s.Logger.Error("failed to update webhook", "error", err, "id", id)
			s.respondError(w, http.StatusInternalServerError, "Webhook konnte nicht aktualisiert werden")
		}
		return
	}

	s.Logger.Info("webhook updated", "id", id)
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleDeleteWebhook permanently removes a webhook
func (s *Server) HandleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := s.webhookID(w, r)
	if !ok {
		return
	}

	if err := s.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Webhook nicht gefunden")
			return
		}
		s.Logger.Error("failed to delete webhook", "error", err, "id", id)
		s.respondError(w, http.StatusInternalServerError, "Webhook konnte nicht gelöscht werden")
		return
	}

	s.Logger.Info("webhook deleted", "id", id)
	s.respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleTriggerWebhook fires the stored webhook once and relays the outcome
func (s *Server) HandleTriggerWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := s.webhookID(w, r)
	if !ok {
		return
	}

	webhook, err := s.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "Webhook nicht gefunden")
			return
		}
		s.Logger.Error("failed to load webhook for trigger", "error", err, "id", id)
		s.respondError(w, http.StatusInternalServerError, "Interner Fehler")
		return
	}

	// The in-flight call runs to completion or timeout even if the
	// client disconnects
	result, err := s.Dispatcher.Trigger(context.WithoutCancel(r.Context()), webhook)
	if err != nil {
		var statusErr *dispatch.StatusError
		var dispatchErr *dispatch.DispatchError
		switch {
		case errors.Is(err, dispatch.ErrTimeout):
			s.respondError(w, http.StatusRequestTimeout, "Timeout beim Auslösen des Webhooks")
		case errors.As(err, &statusErr), errors.As(err, &dispatchErr):
			s.respondError(w, http.StatusBadRequest, "Fehler beim Auslösen: "+err.Error())
		default:
			s.Logger.Error("unexpected trigger failure", "error", err, "id", id)
			s.respondError(w, http.StatusInternalServerError, "Interner Fehler")
		}
		return
	}

	s.Logger.Info("webhook triggered", "webhook", webhook.Name, "id", id, "status", result.StatusCode)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"status_code":   result.StatusCode,
		"response_text": result.Body,
	})
}

// webhookID parses the {webhookID} route parameter. A non-numeric id does
// not match any resource route, so it reports the same 404 as an unknown
// endpoint.
func (s *Server) webhookID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "webhookID"), 10, 64)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "Endpoint nicht gefunden")
		return 0, false
	}
	return id, true
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.Logger.Error("Failed to encode JSON response", "error", err)
	}
}

// respondError sends a JSON error body with the given status code
func (s *Server) respondError(w http.ResponseWriter, statusCode int, message string) {
	s.respondJSON(w, statusCode, map[string]string{"error": message})
}
