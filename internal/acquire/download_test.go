package acquire

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/vehicle.detect/internal/fsutil"
	"github.com/banshee-data/vehicle.detect/internal/httputil"
	"github.com/banshee-data/vehicle.detect/internal/timeutil"
)

const testDir = "/work/pretrained"

func smallSource(t *testing.T) Source {
	t.Helper()
	src, err := LookupSource(DefaultSources(), "yolox_s")
	require.NoError(t, err)
	return src
}

func newTestDownloader(client *httputil.MockHTTPClient, fs *fsutil.MemoryFileSystem) *Downloader {
	clock := timeutil.NewMockClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	clock.AutoAdvance(time.Second)
	return &Downloader{Client: client, FS: fs, Clock: clock, Progress: NopProgress{}}
}

func TestDefaultSources(t *testing.T) {
	sources := DefaultSources()
	require.Len(t, sources, 4)
	for _, s := range sources {
		assert.Equal(t, s.Model+"_coco.pth", s.Filename)
		assert.True(t, strings.HasSuffix(s.URL, "/"+s.Model+".pth"), s.URL)
		assert.NotEmpty(t, s.SizeLabel)
	}

	_, err := LookupSource(sources, "yolox_nano")
	assert.Error(t, err)
	assert.Equal(t, []string{"yolox_l", "yolox_m", "yolox_s", "yolox_x"}, Models(sources))
}

func TestFetch_Downloads(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	client := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, "weights-bytes")
	d := newTestDownloader(client, fs)
	src := smallSource(t)

	out := d.Fetch(context.Background(), testDir, src)

	require.Equal(t, StatusDownloaded, out.Status, "err: %v", out.Err)
	assert.True(t, out.OK())
	assert.NoError(t, out.Err)
	assert.Equal(t, filepath.Join(testDir, "yolox_s_coco.pth"), out.Path)
	assert.Equal(t, int64(len("weights-bytes")), out.Bytes)
	assert.Equal(t, time.Second, out.Elapsed)

	data, err := fs.ReadFile(out.Path)
	require.NoError(t, err)
	assert.Equal(t, "weights-bytes", string(data))
	assert.False(t, fs.IsFile(out.Path+PartialSuffix))

	require.Equal(t, 1, client.RequestCount())
	assert.Equal(t, src.URL, client.GetRequest(0).URL.String())
}

func TestFetch_AlreadyPresentSkipsNetwork(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	require.NoError(t, fs.WriteFile(filepath.Join(testDir, "yolox_s_coco.pth"), []byte("old"), 0644))
	client := httputil.NewMockHTTPClient()
	d := newTestDownloader(client, fs)

	out := d.Fetch(context.Background(), testDir, smallSource(t))

	assert.Equal(t, StatusAlreadyPresent, out.Status)
	assert.True(t, out.OK())
	assert.Equal(t, 0, client.RequestCount())
	data, _ := fs.ReadFile(out.Path)
	assert.Equal(t, "old", string(data))
}

func TestFetch_SecondCallIsNoop(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	client := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, "w")
	d := newTestDownloader(client, fs)
	src := smallSource(t)

	first := d.Fetch(context.Background(), testDir, src)
	second := d.Fetch(context.Background(), testDir, src)

	assert.Equal(t, StatusDownloaded, first.Status)
	assert.Equal(t, StatusAlreadyPresent, second.Status)
	assert.Equal(t, 1, client.RequestCount())
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*httputil.MockHTTPClient)
		wantPartial bool
	}{
		{
			name:  "not found",
			setup: func(c *httputil.MockHTTPClient) { c.AddResponse(http.StatusNotFound, "missing") },
		},
		{
			name:  "network error",
			setup: func(c *httputil.MockHTTPClient) { c.AddErrorResponse(errors.New("connection refused")) },
		},
		{
			name: "short body",
			setup: func(c *httputil.MockHTTPClient) {
				c.AddStreamResponse(http.StatusOK, strings.NewReader("abc"), 10)
			},
			wantPartial: true,
		},
		{
			name: "stream reset",
			setup: func(c *httputil.MockHTTPClient) {
				body := io.MultiReader(strings.NewReader("abc"), iotest.ErrReader(errors.New("connection reset")))
				c.AddStreamResponse(http.StatusOK, body, -1)
			},
			wantPartial: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := fsutil.NewMemoryFileSystem()
			client := httputil.NewMockHTTPClient()
			tt.setup(client)
			d := newTestDownloader(client, fs)
			src := smallSource(t)

			out := d.Fetch(context.Background(), testDir, src)

			assert.Equal(t, StatusFailed, out.Status)
			assert.False(t, out.OK())
			assert.ErrorIs(t, out.Err, ErrAcquisitionFailed)
			assert.False(t, fs.IsFile(out.Path), "destination must not exist after a failure")
			assert.Equal(t, tt.wantPartial, fs.IsFile(out.Path+PartialSuffix))

			guide := out.Guidance()
			assert.Contains(t, guide, src.URL)
			assert.Contains(t, guide, out.Path)
		})
	}
}

func TestFetch_InterruptIsCancellation(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	client := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, "weights")
	d := newTestDownloader(client, fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := d.Fetch(ctx, testDir, smallSource(t))

	assert.Equal(t, StatusCancelled, out.Status)
	assert.ErrorIs(t, out.Err, ErrUserCancelled)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.False(t, fs.IsFile(out.Path))
}

func TestFetch_UnknownLength(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	client := httputil.NewMockHTTPClient().AddStreamResponse(http.StatusOK, strings.NewReader("streamed"), -1)
	d := newTestDownloader(client, fs)

	out := d.Fetch(context.Background(), testDir, smallSource(t))

	require.Equal(t, StatusDownloaded, out.Status, "err: %v", out.Err)
	assert.Equal(t, int64(8), out.Bytes)
}

func TestFetch_RejectsEscapingFilename(t *testing.T) {
	client := httputil.NewMockHTTPClient()
	d := newTestDownloader(client, fsutil.NewMemoryFileSystem())
	src := Source{Model: "evil", URL: "https://example.com/evil.pth", Filename: "../evil.pth"}

	out := d.Fetch(context.Background(), testDir, src)

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, 0, client.RequestCount())
}

func TestTerminalProgress(t *testing.T) {
	t.Run("known size", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewTerminalProgress(&buf)
		p.Start(Source{Model: "yolox_s", SizeLabel: "~35MB", URL: "u"}, 200)
		p.Update(100)
		p.Update(101)
		p.Update(200)
		p.Finish(200, nil)

		out := buf.String()
		assert.Contains(t, out, "Downloading yolox_s (~35MB)")
		assert.Contains(t, out, " 50%")
		assert.Contains(t, out, "100%")
		assert.Equal(t, 1, strings.Count(out, " 50%"), "unchanged percentage is not redrawn")
	})

	t.Run("unknown size", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewTerminalProgress(&buf)
		p.Start(Source{Model: "yolox_s"}, -1)
		p.Update(10)
		p.Update(20)
		p.Finish(20, errors.New("boom"))

		out := buf.String()
		assert.Contains(t, out, "size unknown")
		assert.Equal(t, 1, strings.Count(out, "size unknown"))
		assert.Contains(t, out, "Download stopped after 20 B")
	})
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.0 KiB", formatBytes(1024))
	assert.Equal(t, "35.0 MiB", formatBytes(35*1024*1024))
}
