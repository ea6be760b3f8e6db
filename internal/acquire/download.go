package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/banshee-data/vehicle.detect/internal/fsutil"
	"github.com/banshee-data/vehicle.detect/internal/httputil"
	"github.com/banshee-data/vehicle.detect/internal/monitoring"
	"github.com/banshee-data/vehicle.detect/internal/security"
	"github.com/banshee-data/vehicle.detect/internal/timeutil"
)

// PartialSuffix is appended to the destination while a transfer is running.
const PartialSuffix = ".part"

const copyBufferSize = 32 * 1024

// Downloader streams weights files into a directory.
type Downloader struct {
	Client   httputil.HTTPClient
	FS       fsutil.FileSystem
	Clock    timeutil.Clock
	Progress Progress
}

// NewDownloader returns a Downloader backed by the real network and disk.
func NewDownloader(client httputil.HTTPClient, progress Progress) *Downloader {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	if progress == nil {
		progress = NopProgress{}
	}
	return &Downloader{
		Client:   client,
		FS:       fsutil.OSFileSystem{},
		Clock:    timeutil.RealClock{},
		Progress: progress,
	}
}

// Fetch downloads src into dir. An existing destination is left untouched
// and reported as StatusAlreadyPresent without any network traffic. The body
// is written to a .part file that is renamed only once the transfer is
// complete. A failed transfer leaves the .part file in place for inspection;
// it never matches a catalog filename.
func (d *Downloader) Fetch(ctx context.Context, dir string, src Source) Outcome {
	dest := filepath.Join(dir, src.Filename)

	if err := security.ValidateArtifactFilename(src.Filename); err != nil {
		return failed(src, dest, 0, err)
	}
	if err := security.ValidatePathWithinDirectory(dest, dir); err != nil {
		return failed(src, dest, 0, err)
	}

	if d.FS.IsFile(dest) {
		monitoring.Debugf("%s already present, skipping download", dest)
		return Outcome{Status: StatusAlreadyPresent, Source: src, Path: dest}
	}

	if err := d.FS.MkdirAll(dir, 0755); err != nil {
		return failed(src, dest, 0, fmt.Errorf("failed to create %s: %w", dir, err))
	}

	start := d.Clock.Now()
	resp, err := httputil.GetContext(ctx, d.Client, src.URL)
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(src, dest, 0, ctx.Err())
		}
		return failed(src, dest, 0, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		if detail := httputil.ErrorDetail(resp); detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return failed(src, dest, 0, err)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = -1
	}

	partial := dest + PartialSuffix
	w, err := d.FS.Create(partial)
	if err != nil {
		return failed(src, dest, 0, fmt.Errorf("failed to create %s: %w", partial, err))
	}

	d.Progress.Start(src, total)
	written, copyErr := d.copy(ctx, w, resp.Body)
	closeErr := w.Close()
	d.Progress.Finish(written, copyErr)

	if copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("failed to close %s: %w", partial, closeErr)
	}
	if copyErr == nil && total > 0 && written != total {
		copyErr = fmt.Errorf("short transfer: got %d of %d bytes", written, total)
	}
	if copyErr != nil {
		if written > 0 {
			monitoring.Logf("Partial download left at %s", partial)
		}
		if ctx.Err() != nil {
			return cancelled(src, dest, written, ctx.Err())
		}
		return failed(src, dest, written, copyErr)
	}

	if err := d.FS.Rename(partial, dest); err != nil {
		return failed(src, dest, written, fmt.Errorf("failed to move %s into place: %w", partial, err))
	}

	elapsed := d.Clock.Since(start)
	monitoring.Logf("Downloaded %s (%d bytes) in %s", dest, written, elapsed)
	return Outcome{
		Status:  StatusDownloaded,
		Source:  src,
		Path:    dest,
		Bytes:   written,
		Elapsed: elapsed,
	}
}

func (d *Downloader) copy(ctx context.Context, w io.Writer, r io.Reader) (int64, error) {
	buf := make([]byte, copyBufferSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			m, werr := w.Write(buf[:n])
			written += int64(m)
			if werr != nil {
				return written, fmt.Errorf("write failed: %w", werr)
			}
			d.Progress.Update(written)
		}
		if errors.Is(rerr, io.EOF) {
			return written, nil
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			return written, fmt.Errorf("read failed: %w", rerr)
		}
	}
}
