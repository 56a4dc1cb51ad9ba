package segmentation

import (
	"image"

	"github.com/pkg/errors"
)

// A Mask is a per-pixel grid of non-negative class IDs, stored row-major. A mask
// belongs to the frame it was produced for and is not modified once handed to a
// consumer.
type Mask struct {
	Width   int
	Height  int
	Classes []int
}

// NewMask returns a mask of the given size with every pixel set to class 0.
func NewMask(width, height int) *Mask {
	return &Mask{Width: width, Height: height, Classes: make([]int, width*height)}
}

// NewMaskFromClasses wraps an existing row-major class slice.
func NewMaskFromClasses(width, height int, classes []int) (*Mask, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("mask dimensions must be positive, got %dx%d", width, height)
	}
	if len(classes) != width*height {
		return nil, errors.Errorf("mask of %dx%d needs %d classes, got %d", width, height, width*height, len(classes))
	}
	for i, c := range classes {
		if c < 0 {
			return nil, errors.Errorf("negative class %d at pixel %d", c, i)
		}
	}
	return &Mask{Width: width, Height: height, Classes: classes}, nil
}

// Bounds returns the mask's extent in image coordinates.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At returns the class at (x, y).
func (m *Mask) At(x, y int) int {
	return m.Classes[y*m.Width+x]
}

// Set sets the class at (x, y). Only producers should call this.
func (m *Mask) Set(x, y, class int) {
	m.Classes[y*m.Width+x] = class
}

// Row returns the classes of row y without copying.
func (m *Mask) Row(y int) []int {
	return m.Classes[y*m.Width : (y+1)*m.Width]
}

// FillRect sets every pixel of r (clipped to the mask) to class.
func (m *Mask) FillRect(r image.Rectangle, class int) {
	r = r.Intersect(m.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.Row(y)
		for x := r.Min.X; x < r.Max.X; x++ {
			row[x] = class
		}
	}
}

// Count returns the number of pixels labelled class.
func (m *Mask) Count(class int) int {
	n := 0
	for _, c := range m.Classes {
		if c == class {
			n++
		}
	}
	return n
}
