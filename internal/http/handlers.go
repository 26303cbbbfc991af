package http

import (
	"context"
	"net/http"
	"time"

	"finassist/internal/log"
)

// handleHealth is the liveness check.
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

type readiness struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleReady checks the templates and the storage backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	body := readiness{Status: "ready", Checks: map[string]string{"templates": "ok", "storage": "ok"}}
	status := http.StatusOK

	if s.templates == nil {
		body.Checks["templates"] = "not loaded"
		status = http.StatusServiceUnavailable
	}
	if s.deps.Ready != nil {
		if err := s.deps.Ready(ctx); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Storage not ready", log.FieldError, err)
			body.Checks["storage"] = err.Error()
			status = http.StatusServiceUnavailable
		}
	}
	if status != http.StatusOK {
		body.Status = "not_ready"
	}
	newJSON(body).Status(status).Write(w, r)
}
