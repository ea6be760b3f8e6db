package httputil

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/banshee-data/vehicle.detect/internal/monitoring"
)

// maxErrorDetail bounds how much of a failed response body is read.
const maxErrorDetail = 512

type errorBody struct {
	Error string `json:"error"`
}

// WriteError writes {"error": msg} with the given status code.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorBody{Error: msg}); err != nil {
		monitoring.Logf("failed to encode error response: %v", err)
	}
}

// MethodNotAllowed writes a 405 response.
func MethodNotAllowed(w http.ResponseWriter) {
	WriteError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteError(w, http.StatusNotFound, msg)
}

// ErrorDetail reads a short description from a failed response body. A JSON
// body with an "error" field yields that field; anything else yields the
// first line of text. The body is not closed.
func ErrorDetail(resp *http.Response) string {
	if resp == nil || resp.Body == nil {
		return ""
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorDetail))
	if err != nil || len(b) == 0 {
		return ""
	}
	var eb errorBody
	if json.Unmarshal(b, &eb) == nil && eb.Error != "" {
		return eb.Error
	}
	line, _, _ := strings.Cut(string(b), "\n")
	return strings.TrimSpace(line)
}
