package weights

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/banshee-data/vehicle.detect/internal/fsutil"
	"github.com/banshee-data/vehicle.detect/internal/monitoring"
)

// ErrNotFound means no catalog entry is present in the weights directory.
var ErrNotFound = errors.New("no pretrained weights found")

// Resolved is a weights file that was found on disk. It is only ever
// produced by Resolve.
type Resolved struct {
	Path      string
	BaseModel string
	Entry     Entry
}

// Name returns the file name of the resolved weights.
func (r Resolved) Name() string { return filepath.Base(r.Path) }

// Stem returns the file name without its extension, e.g. "yolox_x_coco".
func (r Resolved) Stem() string {
	name := r.Name()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Resolve returns the highest-priority catalog entry present as a regular
// file in dir. A missing or unreadable dir resolves to not found; it is never
// an error.
func Resolve(fsys fsutil.FileSystem, dir string, catalog Catalog) (Resolved, bool) {
	for _, e := range catalog.entries {
		path := filepath.Join(dir, e.Filename)
		if fsys.IsFile(path) {
			monitoring.Debugf("weights: resolved %s (rank %d)", path, e.Rank)
			return Resolved{Path: path, BaseModel: e.BaseModel, Entry: e}, true
		}
	}
	monitoring.Debugf("weights: none of %d catalog entries present in %s", catalog.Len(), dir)
	return Resolved{}, false
}
