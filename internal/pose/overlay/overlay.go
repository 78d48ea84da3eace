package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/banshee-data/squat.report/internal/pose/classify"
	"github.com/banshee-data/squat.report/internal/pose/landmarks"
)

// Default canvas size used when no source frame is supplied.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Layout constants for the probability bars.
const (
	barTop     = 70
	barStride  = 50
	barHeight  = 60
	barWidth   = 450
	textOffset = 10
	jointRad   = 4
	boneWidth  = 2
)

// Scene is everything Render needs to draw one frame.
type Scene struct {
	// Points holds one pixel position per joint in landmarks.Joint order.
	// Nil means no person was detected and the skeleton is skipped.
	Points   []image.Point
	LegColor color.RGBA

	Direction string
	Reps      int

	// KneeText is drawn at KneeAnchor when non-empty.
	KneeText   string
	KneeAnchor image.Point
	GoLower    bool

	Probabilities classify.Probabilities
	Labels        [classify.NumLabels]string
	Palette       Palette
}

// Render draws s onto a copy of frame and returns the copy. A nil frame is
// replaced by a blank canvas of the default size.
func Render(frame *image.RGBA, s Scene) *image.RGBA {
	dst := copyFrame(frame, s.Palette.Blank)
	dc := gg.NewContextForRGBA(dst)

	if s.Points != nil {
		drawSkeleton(dc, s)
	}
	drawBars(dc, s)

	dc.SetFontFace(newFace(24))
	dc.SetColor(s.Palette.Text)
	dc.DrawString(fmt.Sprintf("%s | Cycles: %d", s.Direction, s.Reps), 0, 50)

	if s.KneeText != "" {
		x := float64(s.KneeAnchor.X + textOffset)
		y := float64(s.KneeAnchor.Y)
		dc.SetColor(s.Palette.Text)
		dc.DrawString(s.KneeText, x, y)
		if s.GoLower {
			dc.SetColor(s.Palette.Warning)
			dc.DrawString("Go lower!", x, y+dc.FontHeight()+4)
		}
	}
	return dst
}

// copyFrame returns a zero-origin RGBA copy of frame.
func copyFrame(frame *image.RGBA, blank color.RGBA) *image.RGBA {
	if frame == nil || frame.Bounds().Empty() {
		dst := image.NewRGBA(image.Rect(0, 0, DefaultWidth, DefaultHeight))
		draw.Draw(dst, dst.Bounds(), image.NewUniform(blank), image.Point{}, draw.Src)
		return dst
	}
	b := frame.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), frame, b.Min, draw.Src)
	return dst
}

func drawSkeleton(dc *gg.Context, s Scene) {
	dc.SetLineWidth(boneWidth)
	for _, c := range landmarks.Connections {
		a, b := int(c[0]), int(c[1])
		if a >= len(s.Points) || b >= len(s.Points) {
			continue
		}
		if c.IsLeg() {
			dc.SetColor(s.LegColor)
		} else {
			dc.SetColor(s.Palette.Bone)
		}
		pa, pb := s.Points[a], s.Points[b]
		dc.DrawLine(float64(pa.X), float64(pa.Y), float64(pb.X), float64(pb.Y))
		dc.Stroke()
	}
	dc.SetColor(s.Palette.Joint)
	for _, p := range s.Points {
		dc.DrawCircle(float64(p.X), float64(p.Y), jointRad)
		dc.Fill()
	}
}

func drawBars(dc *gg.Context, s Scene) {
	dc.SetFontFace(newFace(18))
	for i, p := range s.Probabilities {
		top := float64(barTop + i*barStride)
		dc.SetColor(s.Palette.BarBack)
		dc.DrawRectangle(0, top, barWidth, barHeight)
		dc.Fill()

		if w := clamp01(p) * barWidth; w > 0 {
			dc.SetColor(s.Palette.Bars[i])
			dc.DrawRectangle(0, top, w, barHeight)
			dc.Fill()
		}

		label := s.Labels[i]
		if label == "" {
			label = classify.Label(i).String()
		}
		dc.SetColor(s.Palette.Text)
		dc.DrawString(label, 0, top+barHeight-25)
	}
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

var (
	fontOnce sync.Once
	goFont   *opentype.Font
	fontErr  error
)

// newFace returns a fresh face for each call: opentype faces cache glyphs
// and are not safe for concurrent use.
func newFace(points float64) font.Face {
	fontOnce.Do(func() {
		goFont, fontErr = opentype.Parse(goregular.TTF)
	})
	if fontErr != nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(goFont, &opentype.FaceOptions{Size: points, DPI: 72})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// SkeletonPoints projects a landmark set into pixel space for a frame of the
// given size. A nil set yields nil.
func SkeletonPoints(set *landmarks.Set, width, height int) []image.Point {
	if set == nil {
		return nil
	}
	pts := make([]image.Point, landmarks.NumJoints)
	for i, lm := range set.Points {
		x, y := landmarks.PixelPoint(lm, width, height)
		pts[i] = image.Pt(x, y)
	}
	return pts
}
