package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finassist/internal/core"
	"finassist/internal/log"
)

// jsonResponse is a small builder for JSON replies.
type jsonResponse struct {
	statusCode int
	headers    map[string]string
	body       any
}

func newJSON(body any) *jsonResponse {
	return &jsonResponse{statusCode: http.StatusOK, headers: map[string]string{}, body: body}
}

func (b *jsonResponse) Status(code int) *jsonResponse {
	b.statusCode = code
	return b
}

func (b *jsonResponse) Header(name, value string) *jsonResponse {
	b.headers[name] = value
	return b
}

func (b *jsonResponse) Write(w http.ResponseWriter, r *http.Request) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Encode response failed", log.FieldError, err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func errorJSON(code int, message string) *jsonResponse {
	return newJSON(errorBody{Error: message}).Status(code)
}

// writeError maps domain errors onto status codes: validation problems are
// 422, missing expenses 404, everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		newJSON(errorBody{Error: ve.Message(), Field: ve.Field}).
			Status(http.StatusUnprocessableEntity).
			Write(w, r)
	case errors.Is(err, core.ErrNotFound):
		errorJSON(http.StatusNotFound, core.UserMessage(err)).Write(w, r)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", log.FieldError, err)
		errorJSON(http.StatusInternalServerError, core.UserMessage(err)).Write(w, r)
	}
}
