package landmarkio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/squat.report/internal/pose/landmarks"
)

func sampleSet() *landmarks.Set {
	var s landmarks.Set
	for i := range s.Points {
		s.Points[i] = landmarks.Landmark{X: float64(i) / 100, Y: 0.5, Z: -0.1, Visibility: 0.9}
	}
	return &s
}

func TestReader_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	for i, set := range []*landmarks.Set{sampleSet(), nil, sampleSet()} {
		line, err := EncodeRecord(i, set)
		require.NoError(t, err)
		buf.Write(line)
		if i == 0 {
			buf.WriteString("\n   \n")
		}
	}

	r := NewReader(&buf)
	frame, set, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, frame)
	require.NotNil(t, set)
	assert.Equal(t, sampleSet().Points[landmarks.LeftKnee], set.Get(landmarks.LeftKnee))

	frame, set, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, frame)
	assert.Nil(t, set)

	frame, set, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, frame)
	assert.NotNil(t, set)

	_, _, err = r.Next()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 5, r.Line())
}

func TestReader_MissingLandmarksField(t *testing.T) {
	t.Parallel()
	r := NewReader(strings.NewReader(`{"frame": 7}` + "\n"))
	frame, set, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, 7, frame)
	assert.Nil(t, set)
}

func TestReader_Errors(t *testing.T) {
	t.Parallel()

	r := NewReader(strings.NewReader("{not json}\n"))
	_, _, err := r.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")

	r = NewReader(strings.NewReader(`{"frame": 3, "landmarks": [[0.1, 0.2, 0.3, 1]]}` + "\n"))
	frame, set, err := r.Next()
	require.Error(t, err)
	assert.Equal(t, 3, frame)
	assert.Nil(t, set)
	assert.Contains(t, err.Error(), "frame 3")
}

func TestFrames_WriteLoadAndList(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 2, color.RGBA{10, 20, 30, 255})
	for i := 2; i >= 0; i-- {
		require.NoError(t, WriteFrame(FramePath(dir, i), img))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	fd, err := OpenFrameDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, fd.Len())

	got, err := fd.Frame(1)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), got.Bounds())
	assert.Equal(t, color.RGBA{10, 20, 30, 255}, got.RGBAAt(1, 2))

	got, err = fd.Frame(3)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestLoadFrame_Errors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := LoadFrame(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0o644))
	_, err = LoadFrame(bad)
	assert.Error(t, err)

	_, err = OpenFrameDir(filepath.Join(dir, "nope"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestFramePath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, filepath.Join("out", "frame_000042.png"), FramePath("out", 42))
}
