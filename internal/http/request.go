package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"finassist/internal/core"
)

const maxBodyBytes = 64 << 10

// requestBody reads a JSON or form-encoded body once and serves its fields
// as strings.
type requestBody struct {
	jsonData map[string]any
	formData url.Values
}

func parseRequestBody(w http.ResponseWriter, r *http.Request) (*requestBody, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	body = bytes.TrimSpace(body)

	p := &requestBody{}
	if len(body) == 0 {
		p.formData = url.Values{}
		return p, nil
	}

	if body[0] == '{' || strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		return p, nil
	}

	p.formData, err = url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	return p, nil
}

// Get returns a sanitized string value from the parsed data.
func (p *requestBody) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	return sanitizeInput(p.formData.Get(key))
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// formState maps request fields onto the expense form. Form posts use
// snake_case, JSON bodies use the persisted field names.
func (p *requestBody) formState() core.FormState {
	editing := p.Get("editing_id")
	if editing == "" {
		editing = p.Get("id")
	}
	return core.FormState{
		Amount:      p.Get("amount"),
		Category:    p.Get("category"),
		Date:        p.Get("date"),
		Description: p.Get("description"),
		EditingID:   editing,
	}
}
