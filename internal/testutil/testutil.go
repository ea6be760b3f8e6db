// Package testutil provides shared test fixtures for the launcher packages.
package testutil

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/banshee-data/vehicle.detect/internal/detect"
	"github.com/banshee-data/vehicle.detect/internal/httputil"
)

// WeightsServer serves fake weight files over HTTP, keyed by URL path.
type WeightsServer struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string][]byte
	requests []string
}

// NewWeightsServer starts a server that answers GET /<name> with the
// registered body and 404 for anything else. The server is closed when
// the test finishes.
func NewWeightsServer(t *testing.T) *WeightsServer {
	t.Helper()
	ws := &WeightsServer{files: make(map[string][]byte)}
	ws.Server = httptest.NewServer(http.HandlerFunc(ws.serve))
	t.Cleanup(ws.Close)
	return ws
}

// Add registers body under name and returns its URL.
func (ws *WeightsServer) Add(name string, body []byte) string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.files["/"+name] = body
	return ws.URL + "/" + name
}

// Requests returns the paths requested so far.
func (ws *WeightsServer) Requests() []string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return append([]string(nil), ws.requests...)
}

func (ws *WeightsServer) serve(w http.ResponseWriter, r *http.Request) {
	ws.mu.Lock()
	ws.requests = append(ws.requests, r.URL.Path)
	body, ok := ws.files[r.URL.Path]
	ws.mu.Unlock()

	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	if !ok {
		httputil.NotFound(w, "no such asset")
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

// WriteFile creates dir/name with body, creating dir as needed.
func WriteFile(t *testing.T, dir, name string, body []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Det builds a detection with a unit box, the given scores and class.
func Det(classID int, obj, cls float64) detect.Record {
	return detect.Record{X1: 0, Y1: 0, X2: 10, Y2: 10, ObjConf: obj, ClassConf: cls, ClassID: classID}
}

// Stream encodes frames as a detection stream, one batch per line.
func Stream(t *testing.T, frames ...[]detect.Record) string {
	t.Helper()
	var buf bytes.Buffer
	for _, f := range frames {
		if err := detect.EncodeBatch(&buf, f); err != nil {
			t.Fatalf("encode batch: %v", err)
		}
	}
	return buf.String()
}

// Lines splits s into non-empty lines.
func Lines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
