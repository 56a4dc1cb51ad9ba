package segmentation

import (
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// A Palette assigns a display color to each class ID by position.
type Palette []colorful.Color

// cityscapesColors are the 19 Cityscapes training classes; class 1 is sidewalk.
var cityscapesColors = [][3]uint8{
	{128, 64, 128},
	{244, 35, 232},
	{70, 70, 70},
	{102, 102, 156},
	{190, 153, 153},
	{153, 153, 153},
	{250, 170, 30},
	{220, 220, 0},
	{107, 142, 35},
	{152, 251, 152},
	{0, 130, 180},
	{220, 20, 60},
	{255, 0, 0},
	{0, 0, 142},
	{0, 0, 70},
	{0, 60, 100},
	{0, 80, 100},
	{0, 0, 230},
	{119, 11, 32},
}

// CityscapesPalette returns the palette of the 19 Cityscapes classes.
func CityscapesPalette() Palette {
	p := make(Palette, 0, len(cityscapesColors))
	for _, c := range cityscapesColors {
		p = append(p, colorful.Color{R: float64(c[0]) / 255, G: float64(c[1]) / 255, B: float64(c[2]) / 255})
	}
	return p
}

// ParsePalette parses hex colors such as "#f423e8" into a palette.
func ParsePalette(hexes []string) (Palette, error) {
	p := make(Palette, 0, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, errors.Wrapf(err, "palette entry %d", i)
		}
		p = append(p, c)
	}
	return p, nil
}

// ColorFor returns the color of class, or black when the palette has no entry for it.
func (p Palette) ColorFor(class int) color.Color {
	if class < 0 || class >= len(p) {
		return color.Black
	}
	r, g, b := p[class].RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

// Nearest returns the class whose color is closest to c in Lab space.
func (p Palette) Nearest(c color.Color) int {
	cc, ok := colorful.MakeColor(c)
	if !ok {
		return 0
	}
	best, bestDist := 0, math.Inf(1)
	for i, pc := range p {
		if d := cc.DistanceLab(pc); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Colorize renders a mask with the palette.
func (p Palette) Colorize(mask *Mask) *image.NRGBA {
	out := image.NewNRGBA(mask.Bounds())
	for y := 0; y < mask.Height; y++ {
		for x, class := range mask.Row(y) {
			out.Set(x, y, p.ColorFor(class))
		}
	}
	return out
}

// Decode turns a colorized mask back into class IDs. Colors are cached since
// colorized masks only hold a handful of distinct values.
func (p Palette) Decode(img image.Image) (*Mask, error) {
	if len(p) == 0 {
		return nil, errors.New("cannot decode with an empty palette")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("cannot build a mask from an empty image")
	}
	mask := NewMask(b.Dx(), b.Dy())
	seen := map[color.NRGBA]int{}
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			c, _ := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			class, ok := seen[c]
			if !ok {
				class = p.Nearest(c)
				seen[c] = class
			}
			mask.Set(x, y, class)
		}
	}
	return mask, nil
}
