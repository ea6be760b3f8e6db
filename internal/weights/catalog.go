// Package weights locates pretrained detector weights in an artifact
// directory using a fixed priority catalog.
package weights

import (
	"fmt"

	"github.com/banshee-data/vehicle.detect/internal/security"
)

// Entry is one recognised weights filename. Rank is its position in the
// catalog, 0 being the most preferred.
type Entry struct {
	Filename  string
	Rank      int
	BaseModel string
	COCO      bool
}

// Catalog is an immutable, totally ordered list of entries. Ranks are
// assigned by declaration order, so no two entries tie.
type Catalog struct {
	entries []Entry
}

// Spec declares a catalog entry before ranks are assigned.
type Spec struct {
	Filename  string
	BaseModel string
	COCO      bool
}

// NewCatalog builds a catalog whose priority follows the order of specs.
// Filenames must be plain names and unique.
func NewCatalog(specs ...Spec) (Catalog, error) {
	seen := make(map[string]bool, len(specs))
	entries := make([]Entry, 0, len(specs))
	for i, s := range specs {
		if err := security.ValidateArtifactFilename(s.Filename); err != nil {
			return Catalog{}, err
		}
		if seen[s.Filename] {
			return Catalog{}, fmt.Errorf("duplicate catalog filename %q", s.Filename)
		}
		seen[s.Filename] = true
		entries = append(entries, Entry{
			Filename:  s.Filename,
			Rank:      i,
			BaseModel: s.BaseModel,
			COCO:      s.COCO,
		})
	}
	return Catalog{entries: entries}, nil
}

// DefaultCatalog is the YOLOX priority order: COCO-trained weights from
// largest to smallest, then the generic weights from largest to smallest.
// COCO weights include the vehicle classes, so they always win.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(
		Spec{"yolox_x_coco.pth", "yolox_x", true},
		Spec{"yolox_l_coco.pth", "yolox_l", true},
		Spec{"yolox_m_coco.pth", "yolox_m", true},
		Spec{"yolox_s_coco.pth", "yolox_s", true},
		Spec{"yolox_x.pth", "yolox_x", false},
		Spec{"yolox_l.pth", "yolox_l", false},
		Spec{"yolox_m.pth", "yolox_m", false},
		Spec{"yolox_s.pth", "yolox_s", false},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Entries returns a copy of the entries in priority order.
func (c Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c Catalog) Len() int { return len(c.entries) }

// Filenames lists the entry filenames in priority order.
func (c Catalog) Filenames() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Filename
	}
	return out
}
