package detect

// Filter returns the records whose class is in keep, in input order. The
// input is not modified and the result never aliases it.
func Filter(records []Record, keep ClassSet) []Record {
	return AppendFiltered(make([]Record, 0, len(records)), records, keep)
}

// AppendFiltered appends the records of src whose class is in keep to dst
// and returns the extended slice. Reusing dst across frames avoids a
// per-frame allocation.
func AppendFiltered(dst, src []Record, keep ClassSet) []Record {
	for _, r := range src {
		if keep.Contains(r.ClassID) {
			dst = append(dst, r)
		}
	}
	return dst
}

// FilterFrames applies Filter to every frame. Frames with no remaining
// records become empty, non-nil slices so frame indices are preserved.
func FilterFrames(frames [][]Record, keep ClassSet) [][]Record {
	out := make([][]Record, len(frames))
	for i, f := range frames {
		out[i] = Filter(f, keep)
	}
	return out
}
