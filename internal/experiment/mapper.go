// Package experiment maps resolved weights to the experiment file the
// external pipeline needs alongside them.
package experiment

import (
	"path/filepath"
	"strings"

	"github.com/banshee-data/vehicle.detect/internal/fsutil"
	"github.com/banshee-data/vehicle.detect/internal/monitoring"
)

// COCOSuffix marks weights retrained on COCO. The experiment file is shared
// with the generic weights of the same size.
const COCOSuffix = "_coco"

// Mapping is the experiment file chosen for a weights stem.
type Mapping struct {
	BaseModel string
	Path      string
	// Fallback is set when the derived path was absent and the fallback
	// experiment was substituted.
	Fallback bool
	// Derived is the path that was looked for first.
	Derived string
}

// BaseModel strips the COCO marker from a weights stem:
// "yolox_x_coco" -> "yolox_x", "yolox_x" -> "yolox_x".
func BaseModel(stem string) string {
	if strings.Contains(stem, COCOSuffix) {
		return strings.ReplaceAll(stem, COCOSuffix, "")
	}
	return stem
}

// PathFor returns the experiment path for a base model inside expsDir.
func PathFor(expsDir, baseModel string) string {
	return filepath.Join(expsDir, baseModel+".py")
}

// Map derives the experiment file for stem. It never fails: when the derived
// file is missing it substitutes the fallback model's experiment and logs it.
//
// TODO: the fallback can hide a weights/experiment naming mismatch; decide
// whether a missing derived file should stop the launch instead.
func Map(fsys fsutil.FileSystem, expsDir, fallbackModel, stem string) Mapping {
	base := BaseModel(stem)
	derived := PathFor(expsDir, base)

	m := Mapping{BaseModel: base, Path: derived, Derived: derived}
	if fsys.IsFile(derived) {
		return m
	}

	m.Path = PathFor(expsDir, fallbackModel)
	m.Fallback = true
	monitoring.Logf("experiment file %s not found for %s; falling back to %s", derived, stem, m.Path)
	return m
}
