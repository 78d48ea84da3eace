package overlay

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/squat.report/internal/pose/classify"
	"github.com/banshee-data/squat.report/internal/pose/landmarks"
)

func grayFrame(w, h int) *image.RGBA {
	im := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(im, im.Bounds(), image.NewUniform(color.RGBA{100, 100, 100, 255}), image.Point{}, draw.Src)
	return im
}

func baseScene() Scene {
	return Scene{
		Direction: "STABLE",
		Labels:    classify.LabelNames(),
		Palette:   DefaultPalette(),
	}
}

func TestRender_DoesNotMutateSource(t *testing.T) {
	t.Parallel()
	src := grayFrame(640, 480)
	before := make([]byte, len(src.Pix))
	copy(before, src.Pix)

	s := baseScene()
	s.Probabilities[classify.Good] = 1
	out := Render(src, s)

	assert.Equal(t, before, src.Pix)
	assert.NotSame(t, src, out)
	assert.Equal(t, src.Bounds(), out.Bounds())
}

func TestRender_NilFrame(t *testing.T) {
	t.Parallel()
	out := Render(nil, baseScene())
	require.NotNil(t, out)
	assert.Equal(t, image.Rect(0, 0, DefaultWidth, DefaultHeight), out.Bounds())
}

func TestRender_OffsetFrameIsRebased(t *testing.T) {
	t.Parallel()
	src := grayFrame(700, 500).SubImage(image.Rect(20, 10, 660, 490)).(*image.RGBA)
	out := Render(src, baseScene())
	assert.Equal(t, image.Rect(0, 0, 640, 480), out.Bounds())
	assert.Equal(t, color.RGBA{100, 100, 100, 255}, out.RGBAAt(600, 470))
}

func TestRender_ProbabilityBars(t *testing.T) {
	t.Parallel()
	p := DefaultPalette()
	s := baseScene()
	s.Probabilities[classify.BadHead] = 1
	s.Probabilities[classify.Good] = 0.5

	out := Render(grayFrame(640, 480), s)

	// Row 0 is full width in the first bar colour.
	assert.Equal(t, p.Bars[classify.BadHead], out.RGBAAt(440, 75))
	// Row 6 is half width: coloured near the start, background past the middle.
	assert.Equal(t, p.Bars[classify.Good], out.RGBAAt(200, 425))
	assert.Equal(t, p.BarBack, out.RGBAAt(400, 425))
	// Outside the bar area the frame is untouched.
	assert.Equal(t, color.RGBA{100, 100, 100, 255}, out.RGBAAt(600, 100))
}

func TestRender_ZeroProbabilitiesDrawBackgroundOnly(t *testing.T) {
	t.Parallel()
	p := DefaultPalette()
	out := Render(grayFrame(640, 480), baseScene())
	for i := 0; i < classify.NumLabels; i++ {
		y := barTop + i*barStride + 2
		assert.Equal(t, p.BarBack, out.RGBAAt(440, y), "row %d", i)
	}
}

func TestRender_LegColour(t *testing.T) {
	t.Parallel()
	pts := make([]image.Point, landmarks.NumJoints)
	for i := range pts {
		pts[i] = image.Pt(620, 460)
	}
	pts[landmarks.LeftHip] = image.Pt(550, 150)
	pts[landmarks.LeftKnee] = image.Pt(550, 250)
	pts[landmarks.LeftAnkle] = image.Pt(550, 350)

	for _, tc := range []struct {
		name string
		knee float64
		want color.RGBA
	}{
		{"deep", 90, DefaultPalette().LegDeep},
		{"shallow", 150, DefaultPalette().LegShallow},
	} {
		t.Run(tc.name, func(t *testing.T) {
			s := baseScene()
			s.Points = pts
			s.LegColor = s.Palette.LegColor(tc.knee, 120)
			out := Render(grayFrame(640, 480), s)
			assert.Equal(t, tc.want, out.RGBAAt(550, 200))
		})
	}
}

func TestRender_NoSkeletonWithoutPoints(t *testing.T) {
	t.Parallel()
	out := Render(grayFrame(640, 480), baseScene())
	assert.Equal(t, color.RGBA{100, 100, 100, 255}, out.RGBAAt(550, 200))
}

func TestRender_DirectionText(t *testing.T) {
	t.Parallel()
	s := baseScene()
	s.Direction = "UP"
	s.Reps = 3
	out := Render(grayFrame(640, 480), s)

	// Some pixel in the text band above the bars changes.
	changed := false
	for y := 25; y < 55 && !changed; y++ {
		for x := 0; x < 200; x++ {
			if out.RGBAAt(x, y) != (color.RGBA{100, 100, 100, 255}) {
				changed = true
				break
			}
		}
	}
	assert.True(t, changed)
}

func TestPalette_LegColor(t *testing.T) {
	t.Parallel()
	p := DefaultPalette()
	assert.Equal(t, p.LegDeep, p.LegColor(119.9, 120))
	assert.Equal(t, p.LegShallow, p.LegColor(120, 120))
	assert.Equal(t, p.Bone, p.LegColor(math.NaN(), 120))
}

func TestSkeletonPoints(t *testing.T) {
	t.Parallel()
	assert.Nil(t, SkeletonPoints(nil, 640, 480))

	var set landmarks.Set
	set.Points[landmarks.LeftKnee] = landmarks.Landmark{X: 0.5, Y: 0.25, Visibility: 1}
	pts := SkeletonPoints(&set, 640, 480)
	require.Len(t, pts, landmarks.NumJoints)
	assert.Equal(t, image.Pt(320, 120), pts[landmarks.LeftKnee])
}
