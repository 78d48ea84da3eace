package overlay

import (
	"image/color"
	"math"

	"github.com/banshee-data/squat.report/internal/pose/classify"
)

// Palette holds every colour the overlay uses.
type Palette struct {
	Bars       [classify.NumLabels]color.RGBA
	Bone       color.RGBA
	Joint      color.RGBA
	LegDeep    color.RGBA // knee angle below the depth threshold
	LegShallow color.RGBA
	Text       color.RGBA
	Warning    color.RGBA
	BarBack    color.RGBA
	Blank      color.RGBA
}

var (
	orange    = color.RGBA{245, 117, 16, 255}
	lime      = color.RGBA{117, 245, 16, 255}
	royalBlue = color.RGBA{16, 117, 245, 255}
	red       = color.RGBA{255, 0, 0, 255}
	blue      = color.RGBA{0, 0, 255, 255}
	yellow    = color.RGBA{255, 255, 0, 255}
	green     = color.RGBA{0, 255, 0, 255}
	white     = color.RGBA{255, 255, 255, 255}
	black     = color.RGBA{0, 0, 0, 255}
)

// DefaultPalette returns the standard overlay colours. Bar colours follow
// label order.
func DefaultPalette() Palette {
	return Palette{
		Bars:       [classify.NumLabels]color.RGBA{orange, lime, royalBlue, red, blue, yellow, green},
		Bone:       white,
		Joint:      color.RGBA{245, 66, 230, 255},
		LegDeep:    green,
		LegShallow: red,
		Text:       white,
		Warning:    red,
		BarBack:    black,
		Blank:      color.RGBA{32, 32, 32, 255},
	}
}

// LegColor picks the leg colour for a knee angle against the depth
// threshold. A NaN angle (not measured) gets the bone colour.
func (p Palette) LegColor(kneeDeg, thresholdDeg float64) color.RGBA {
	switch {
	case math.IsNaN(kneeDeg):
		return p.Bone
	case kneeDeg < thresholdDeg:
		return p.LegDeep
	default:
		return p.LegShallow
	}
}
