package acquire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vehicle.detect/internal/httputil"
	"github.com/banshee-data/vehicle.detect/internal/testutil"
)

func TestFetch_OverHTTP(t *testing.T) {
	ws := testutil.NewWeightsServer(t)
	body := []byte("pretend checkpoint bytes")
	src := Source{
		Model:     "yolox_s",
		URL:       ws.Add("yolox_s.pth", body),
		Filename:  "yolox_s_coco.pth",
		SizeLabel: "~35MB",
	}
	dir := filepath.Join(t.TempDir(), "pretrained")

	d := NewDownloader(httputil.NewStandardClient(http.DefaultClient), nil)
	out := d.Fetch(context.Background(), dir, src)
	require.NoError(t, out.Err)
	assert.Equal(t, StatusDownloaded, out.Status)
	assert.EqualValues(t, len(body), out.Bytes)

	got, err := os.ReadFile(filepath.Join(dir, src.Filename))
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.NoFileExists(t, filepath.Join(dir, src.Filename+PartialSuffix))

	out = d.Fetch(context.Background(), dir, src)
	assert.Equal(t, StatusAlreadyPresent, out.Status)
	assert.Len(t, ws.Requests(), 1)
}

func TestFetch_OverHTTPNotFound(t *testing.T) {
	ws := testutil.NewWeightsServer(t)
	src := Source{Model: "yolox_s", URL: ws.URL + "/gone.pth", Filename: "yolox_s_coco.pth"}
	dir := t.TempDir()

	out := NewDownloader(nil, nil).Fetch(context.Background(), dir, src)
	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, ErrAcquisitionFailed)
	assert.Contains(t, out.Err.Error(), "404")
	assert.NoFileExists(t, filepath.Join(dir, src.Filename))
}

func TestFetch_ClientTimeoutIsFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000000")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(make([]byte, 1000))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	src := Source{Model: "yolox_s", URL: srv.URL + "/yolox_s.pth", Filename: "yolox_s_coco.pth"}
	dir := t.TempDir()
	client := httputil.NewStandardClient(&http.Client{Timeout: 300 * time.Millisecond})

	out := NewDownloader(client, nil).Fetch(context.Background(), dir, src)

	assert.Equal(t, StatusFailed, out.Status)
	assert.ErrorIs(t, out.Err, ErrAcquisitionFailed)
	assert.NotErrorIs(t, out.Err, ErrUserCancelled)
	assert.Contains(t, out.Guidance(), src.URL)
	assert.FileExists(t, filepath.Join(dir, src.Filename+PartialSuffix))
	assert.NoFileExists(t, filepath.Join(dir, src.Filename))
}
