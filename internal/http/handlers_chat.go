package http

import (
	"errors"
	"net/http"

	"finassist/internal/assistant"
	"finassist/internal/log"
)

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	newJSON(map[string][]assistant.Message{"messages": s.deps.Transcript.Messages()}).Write(w, r)
}

// handleChat answers {"message": "..."} with the user message and the reply
// appended to the transcript.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body, err := parseRequestBody(w, r)
	if err != nil {
		errorJSON(http.StatusBadRequest, "Invalid request body").Write(w, r)
		return
	}
	msgs, err := s.converse(r, body.Get("message"))
	if errors.Is(err, assistant.ErrEmptyQuery) {
		errorJSON(http.StatusUnprocessableEntity, "Message is empty").Write(w, r)
		return
	}
	newJSON(map[string][]assistant.Message{"messages": msgs}).Write(w, r)
}

// handleChatForm is the no-script variant; blank messages are ignored.
func (s *Server) handleChatForm(w http.ResponseWriter, r *http.Request) {
	if body, err := parseRequestBody(w, r); err == nil {
		_, _ = s.converse(r, body.Get("message"))
	}
	http.Redirect(w, r, "/#chat", http.StatusSeeOther)
}

func (s *Server) converse(r *http.Request, text string) ([]assistant.Message, error) {
	msgs, err := s.deps.Assistant.Converse(s.deps.Transcript, text, s.deps.Store.List())
	if err != nil {
		return nil, err
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Chat answered",
		log.FieldOperation, log.OpChat,
		log.FieldCount, s.deps.Transcript.Len())
	return msgs, nil
}
