package detect

import (
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// ClassStats aggregates the detections of one class.
type ClassStats struct {
	ClassID   int
	Name      string
	Count     int
	MeanScore float64
	StdScore  float64
}

// Summary aggregates a run of batches.
type Summary struct {
	Batches int
	Total   int
	Classes []ClassStats
}

// Summarize groups records by class and computes the mean and standard
// deviation of their scores. Classes are ordered by id.
func Summarize(batches [][]Record) Summary {
	scores := make(map[int][]float64)
	s := Summary{Batches: len(batches)}
	for _, b := range batches {
		for _, r := range b {
			scores[r.ClassID] = append(scores[r.ClassID], r.Score())
			s.Total++
		}
	}

	ids := make([]int, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		xs := scores[id]
		cs := ClassStats{ClassID: id, Name: ClassName(id), Count: len(xs)}
		if len(xs) > 1 {
			cs.MeanScore, cs.StdScore = stat.MeanStdDev(xs, nil)
		} else {
			cs.MeanScore = xs[0]
		}
		s.Classes = append(s.Classes, cs)
	}
	return s
}

// SummarizeStream reads batches from r, optionally restricted to keep, and
// summarizes them.
func SummarizeStream(r io.Reader, keep *ClassSet) (Summary, error) {
	br := NewBatchReader(r)
	var batches [][]Record
	for {
		b, err := br.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Summary{}, err
		}
		if keep != nil {
			b = Filter(b, *keep)
		}
		batches = append(batches, b)
	}
	return Summarize(batches), nil
}
