package detect

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scored(cls int, obj, conf float64) Record {
	return Record{ObjConf: obj, ClassConf: conf, ClassID: cls}
}

func TestSummarize(t *testing.T) {
	batches := [][]Record{
		{scored(2, 1, 0.5), scored(7, 1, 0.9)},
		{scored(2, 1, 0.7)},
		nil,
	}

	s := Summarize(batches)

	assert.Equal(t, 3, s.Batches)
	assert.Equal(t, 3, s.Total)
	require.Len(t, s.Classes, 2)

	car := s.Classes[0]
	assert.Equal(t, 2, car.ClassID)
	assert.Equal(t, "car", car.Name)
	assert.Equal(t, 2, car.Count)
	assert.InDelta(t, 0.6, car.MeanScore, 1e-6)
	assert.InDelta(t, math.Sqrt(0.02), car.StdScore, 1e-6)

	truck := s.Classes[1]
	assert.Equal(t, "truck", truck.Name)
	assert.InDelta(t, 0.9, truck.MeanScore, 1e-6)
	assert.Zero(t, truck.StdScore)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Total)
	assert.Empty(t, s.Classes)
}

func TestSummarizeStream(t *testing.T) {
	in := "[[0,0,1,1,1,0.5,0],[0,0,1,1,1,0.5,2]]\n[[0,0,1,1,1,0.5,3]]\n"

	all, err := SummarizeStream(strings.NewReader(in), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	keep := Vehicles()
	vehicles, err := SummarizeStream(strings.NewReader(in), &keep)
	require.NoError(t, err)
	assert.Equal(t, 2, vehicles.Total)
	assert.Equal(t, 2, vehicles.Batches)

	_, err = SummarizeStream(strings.NewReader("garbage\n"), nil)
	assert.Error(t, err)
}
