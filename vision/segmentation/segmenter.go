// Package segmentation holds the per-pixel class masks produced by semantic
// segmentation and the segmenters that produce them.
package segmentation

import (
	"context"
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// A Segmenter labels every pixel of a frame with a class ID. Implementations must
// return a mask with the same bounds as the frame they were given, or the model's
// declared output resolution when they resize.
type Segmenter func(ctx context.Context, img image.Image) (*Mask, error)

// MaskFromLabelImage reads a label image into a mask. Paletted images use the
// palette index as the class, everything else uses the gray level.
func MaskFromLabelImage(img image.Image) (*Mask, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("cannot build a mask from an empty image")
	}
	mask := NewMask(b.Dx(), b.Dy())
	switch im := img.(type) {
	case *image.Paletted:
		for y := 0; y < mask.Height; y++ {
			for x := 0; x < mask.Width; x++ {
				mask.Set(x, y, int(im.ColorIndexAt(b.Min.X+x, b.Min.Y+y)))
			}
		}
	case *image.Gray:
		for y := 0; y < mask.Height; y++ {
			for x := 0; x < mask.Width; x++ {
				mask.Set(x, y, int(im.GrayAt(b.Min.X+x, b.Min.Y+y).Y))
			}
		}
	default:
		for y := 0; y < mask.Height; y++ {
			for x := 0; x < mask.Width; x++ {
				g, _ := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				mask.Set(x, y, int(g.Y))
			}
		}
	}
	return mask, nil
}

// NewLabelImageSegmenter returns a segmenter for frames that are already label
// images, such as masks exported by an offline model run. With a nil palette the
// class is read from the pixel's index or gray level; otherwise every pixel is
// mapped to the nearest palette color.
func NewLabelImageSegmenter(palette Palette) Segmenter {
	return func(ctx context.Context, img image.Image) (*Mask, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(palette) == 0 {
			return MaskFromLabelImage(img)
		}
		return palette.Decode(img)
	}
}
