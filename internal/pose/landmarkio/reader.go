package landmarkio

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/squat.report/internal/pose/landmarks"
)

// maxLineSize bounds a single JSONL record.
const maxLineSize = 1 << 20

// Record is one line of a landmark recording.
type Record struct {
	Frame     int         `json:"frame"`
	Landmarks [][]float64 `json:"landmarks"`
}

// Reader decodes a landmark recording one frame at a time.
type Reader struct {
	scan *bufio.Scanner
	line int
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{scan: scan}
}

// Next returns the next frame number and landmark set. The set is nil when
// no person was detected in that frame. io.EOF marks the end of the stream.
// Blank lines are skipped.
func (r *Reader) Next() (int, *landmarks.Set, error) {
	for r.scan.Scan() {
		r.line++
		line := bytes.TrimSpace(r.scan.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return 0, nil, fmt.Errorf("line %d: failed to parse record: %w", r.line, err)
		}
		if rec.Landmarks == nil {
			return rec.Frame, nil, nil
		}
		set, err := landmarks.FromValues(rec.Landmarks)
		if err != nil {
			return rec.Frame, nil, fmt.Errorf("line %d: frame %d: %w", r.line, rec.Frame, err)
		}
		return rec.Frame, set, nil
	}
	if err := r.scan.Err(); err != nil {
		return 0, nil, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return 0, nil, io.EOF
}

// Line returns the number of lines consumed so far.
func (r *Reader) Line() int { return r.line }

// EncodeRecord returns the JSONL form of one frame. A nil set encodes a
// no-person frame.
func EncodeRecord(frame int, set *landmarks.Set) ([]byte, error) {
	rec := Record{Frame: frame}
	if set != nil {
		rec.Landmarks = make([][]float64, landmarks.NumJoints)
		for i, lm := range set.Points {
			rec.Landmarks[i] = []float64{lm.X, lm.Y, lm.Z, lm.Visibility}
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame %d: %w", frame, err)
	}
	return append(data, '\n'), nil
}
