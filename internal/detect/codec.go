package detect

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// FieldsPerRecord is the width of one raw detection row:
// x1, y1, x2, y2, objectness, class confidence, class index.
const FieldsPerRecord = 7

const maxLineSize = 16 << 20

// DecodeBatch parses one frame of raw detections, a JSON array of
// 7-element numeric arrays.
func DecodeBatch(line []byte) ([]Record, error) {
	var rows [][]float64
	if err := json.Unmarshal(line, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse detection batch: %w", err)
	}
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		r, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("detection %d: %w", i, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func recordFromRow(row []float64) (Record, error) {
	if len(row) != FieldsPerRecord {
		return Record{}, fmt.Errorf("expected %d fields, got %d", FieldsPerRecord, len(row))
	}
	cls := row[6]
	if cls != math.Trunc(cls) || cls < math.MinInt32 || cls > math.MaxInt32 {
		return Record{}, fmt.Errorf("class index %v is not an integer", cls)
	}
	return Record{
		X1:        row[0],
		Y1:        row[1],
		X2:        row[2],
		Y2:        row[3],
		ObjConf:   row[4],
		ClassConf: row[5],
		ClassID:   int(cls),
	}, nil
}

// EncodeBatch writes records as one JSON line in the format DecodeBatch reads.
func EncodeBatch(w io.Writer, records []Record) error {
	rows := make([][FieldsPerRecord]float64, len(records))
	for i, r := range records {
		rows[i] = [FieldsPerRecord]float64{
			r.X1, r.Y1, r.X2, r.Y2,
			r.ObjConf, r.ClassConf, float64(r.ClassID),
		}
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to encode detection batch: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// BatchReader reads one batch per line. Blank lines are skipped.
type BatchReader struct {
	sc   *bufio.Scanner
	line int
}

// NewBatchReader wraps r.
func NewBatchReader(r io.Reader) *BatchReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return &BatchReader{sc: sc}
}

// Next returns the next batch, or io.EOF when the input is exhausted.
func (br *BatchReader) Next() ([]Record, error) {
	for br.sc.Scan() {
		br.line++
		line := bytes.TrimSpace(br.sc.Bytes())
		if len(line) == 0 {
			continue
		}
		records, err := DecodeBatch(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", br.line, err)
		}
		return records, nil
	}
	if err := br.sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", br.line+1, err)
	}
	return nil, io.EOF
}

// StreamStats counts what FilterStream saw.
type StreamStats struct {
	Batches int
	In      int
	Out     int
}

// FilterStream copies batches from r to w keeping only classes in keep.
// Every input batch produces one output line, possibly "[]".
func FilterStream(r io.Reader, w io.Writer, keep ClassSet) (StreamStats, error) {
	var stats StreamStats
	br := NewBatchReader(r)
	var buf []Record
	for {
		batch, err := br.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		buf = AppendFiltered(buf[:0], batch, keep)
		if err := EncodeBatch(w, buf); err != nil {
			return stats, err
		}
		stats.Batches++
		stats.In += len(batch)
		stats.Out += len(buf)
	}
}
