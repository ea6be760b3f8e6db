// Package acquire fetches pretrained weights when none are present: it asks
// the user which model to download, streams it into the artifact directory
// and re-checks resolution afterwards.
package acquire

import (
	"fmt"
	"sort"
)

// Source is a downloadable weights file.
type Source struct {
	Model     string
	URL       string
	Filename  string
	SizeLabel string
}

const releaseBase = "https://github.com/Megvii-BaseDetection/YOLOX/releases/download/0.1.1rc0/"

// DefaultSources lists the COCO-pretrained YOLOX releases, largest first.
// Downloads are saved under the _coco name so they outrank generic weights.
func DefaultSources() []Source {
	return []Source{
		{Model: "yolox_x", URL: releaseBase + "yolox_x.pth", Filename: "yolox_x_coco.pth", SizeLabel: "~378MB"},
		{Model: "yolox_l", URL: releaseBase + "yolox_l.pth", Filename: "yolox_l_coco.pth", SizeLabel: "~207MB"},
		{Model: "yolox_m", URL: releaseBase + "yolox_m.pth", Filename: "yolox_m_coco.pth", SizeLabel: "~97MB"},
		{Model: "yolox_s", URL: releaseBase + "yolox_s.pth", Filename: "yolox_s_coco.pth", SizeLabel: "~35MB"},
	}
}

// LookupSource finds the source for model among sources.
func LookupSource(sources []Source, model string) (Source, error) {
	for _, s := range sources {
		if s.Model == model {
			return s, nil
		}
	}
	return Source{}, fmt.Errorf("unknown model %q (available: %v)", model, Models(sources))
}

// Models returns the model names of sources, sorted.
func Models(sources []Source) []string {
	out := make([]string, 0, len(sources))
	for _, s := range sources {
		out = append(out, s.Model)
	}
	sort.Strings(out)
	return out
}
