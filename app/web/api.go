package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/convtrack/app/service"
)

// queueResponse is the JSON response for /api/v1/queue
type queueResponse struct {
	Queued int `json:"queued"`
}

// visibilityRequest is the JSON body for /api/v1/visibility, also used as the response
type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

// handleState returns tracker snapshot with cached active job and completed result
func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Service.State())
}

// handleHistory returns non-expired history, most recent first
func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Service.History())
}

func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.Timeout)
	defer cancel()
	queued, err := s.Service.QueueDepth(ctx)
	if err != nil {
		log.Printf("[WARN] can't get queue depth, %v", err)
		s.writeJSONError(w, http.StatusBadGateway, "failed to get queue depth")
		return
	}
	s.writeJSON(w, http.StatusOK, queueResponse{Queued: queued})
}

// handleCancel stops tracking of the active job and asks server to cancel it
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.Timeout)
	defer cancel()
	if err := s.Service.Cancel(ctx); err != nil {
		if errors.Is(err, service.ErrNoActiveJob) {
			s.writeJSONError(w, http.StatusConflict, "no active job")
			return
		}
		log.Printf("[WARN] can't cancel, %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to cancel")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleVisibility toggles the pause gate, polling is paused while not visible
func (s *Server) handleVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Visible == nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request, expected {\"visible\": bool}")
		return
	}
	s.Visibility.Set(*req.Visible)
	log.Printf("[DEBUG] visibility set to %v", *req.Visible)
	visible := s.Visibility.Visible()
	s.writeJSON(w, http.StatusOK, visibilityRequest{Visible: &visible})
}

// writeJSON writes a JSON response with the given status code
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
