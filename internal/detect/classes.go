package detect

import "fmt"

// MaxClassID bounds the class indices a ClassSet can hold.
const MaxClassID = 127

// ClassSet is an immutable set of class indices.
type ClassSet struct {
	bits [2]uint64
}

// NewClassSet returns the set of ids. Ids outside [0, MaxClassID] are
// rejected.
func NewClassSet(ids ...int) (ClassSet, error) {
	var s ClassSet
	for _, id := range ids {
		if id < 0 || id > MaxClassID {
			return ClassSet{}, fmt.Errorf("class id %d out of range [0, %d]", id, MaxClassID)
		}
		s.bits[id>>6] |= 1 << uint(id&63)
	}
	return s, nil
}

// MustClassSet is NewClassSet for static tables.
func MustClassSet(ids ...int) ClassSet {
	s, err := NewClassSet(ids...)
	if err != nil {
		panic(err)
	}
	return s
}

// Vehicles returns bicycle, car, motorcycle, bus, train and truck.
func Vehicles() ClassSet {
	return MustClassSet(1, 2, 3, 5, 6, 7)
}

// Contains reports whether id is in the set. Negative and out-of-range ids
// are never members.
func (s ClassSet) Contains(id int) bool {
	if id < 0 || id > MaxClassID {
		return false
	}
	return s.bits[id>>6]&(1<<uint(id&63)) != 0
}

// IDs returns the members in ascending order.
func (s ClassSet) IDs() []int {
	var ids []int
	for id := 0; id <= MaxClassID; id++ {
		if s.Contains(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Len returns the number of members.
func (s ClassSet) Len() int {
	n := 0
	for id := 0; id <= MaxClassID; id++ {
		if s.Contains(id) {
			n++
		}
	}
	return n
}

var cocoNames = [...]string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat", "traffic light",
	"fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse", "sheep", "cow",
	"elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie", "suitcase", "frisbee",
	"skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove", "skateboard", "surfboard",
	"tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple",
	"sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch",
	"potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote", "keyboard", "cell phone",
	"microwave", "oven", "toaster", "sink", "refrigerator", "book", "clock", "vase", "scissors", "teddy bear",
	"hair drier", "toothbrush",
}

// ClassName returns the COCO label for id, or "class_<id>" when unknown.
func ClassName(id int) string {
	if id >= 0 && id < len(cocoNames) {
		return cocoNames[id]
	}
	return fmt.Sprintf("class_%d", id)
}

// ClassNames returns the labels of the members in ascending id order.
func (s ClassSet) ClassNames() []string {
	ids := s.IDs()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = ClassName(id)
	}
	return names
}
