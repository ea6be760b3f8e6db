// Package detect holds the per-frame detection record emitted by the
// detector and the vehicle class filter applied to it.
package detect

// Record is one detection: a box in x1,y1,x2,y2 order, the objectness and
// class confidences, and the COCO class index.
type Record struct {
	X1, Y1, X2, Y2 float64
	ObjConf        float64
	ClassConf      float64
	ClassID        int
}

// Score is the combined confidence the detector ranks boxes by.
func (r Record) Score() float64 { return r.ObjConf * r.ClassConf }

// Width returns the box width.
func (r Record) Width() float64 { return r.X2 - r.X1 }

// Height returns the box height.
func (r Record) Height() float64 { return r.Y2 - r.Y1 }
