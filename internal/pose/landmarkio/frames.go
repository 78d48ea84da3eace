package landmarkio

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // register decoder
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

var frameExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".webp": true,
}

// FrameDir is a directory of still frames ordered by file name.
type FrameDir struct {
	paths []string
}

// OpenFrameDir lists the image files in dir.
func OpenFrameDir(dir string) (*FrameDir, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frame directory: %w", err)
	}
	fd := &FrameDir{}
	for _, e := range entries {
		if e.IsDir() || !frameExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		fd.paths = append(fd.paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(fd.paths)
	return fd, nil
}

// Len returns the number of frames.
func (d *FrameDir) Len() int { return len(d.paths) }

// Frame loads frame i. An index outside the directory returns nil, nil.
func (d *FrameDir) Frame(i int) (*image.RGBA, error) {
	if i < 0 || i >= len(d.paths) {
		return nil, nil
	}
	return LoadFrame(d.paths[i])
}

// LoadFrame decodes an image file into a zero-origin RGBA buffer.
func LoadFrame(path string) (*image.RGBA, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open frame: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}

// FramePath returns the output path for annotated frame index in dir.
func FramePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%06d.png", index))
}

// WriteFrame encodes img as PNG at path.
func WriteFrame(path string, img image.Image) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return f.Close()
}
