package segmentation

import (
	"image/color"
	"testing"

	"go.viam.com/test"
)

func TestCityscapesPalette(t *testing.T) {
	p := CityscapesPalette()
	test.That(t, p, test.ShouldHaveLength, 19)
	test.That(t, p.ColorFor(1), test.ShouldResemble, color.NRGBA{R: 244, G: 35, B: 232, A: 255})
	test.That(t, p.ColorFor(18), test.ShouldResemble, color.NRGBA{R: 119, G: 11, B: 32, A: 255})
	test.That(t, p.ColorFor(19), test.ShouldResemble, color.Black)
	test.That(t, p.ColorFor(-1), test.ShouldResemble, color.Black)
}

func TestParsePalette(t *testing.T) {
	p, err := ParsePalette([]string{"#000000", "#f423e8"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.ColorFor(1), test.ShouldResemble, color.NRGBA{R: 244, G: 35, B: 232, A: 255})

	_, err = ParsePalette([]string{"#000000", "purple"})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "palette entry 1")
}

func TestPaletteNearest(t *testing.T) {
	p := CityscapesPalette()
	test.That(t, p.Nearest(color.NRGBA{R: 240, G: 40, B: 230, A: 255}), test.ShouldEqual, 1)
	test.That(t, p.Nearest(color.NRGBA{R: 128, G: 64, B: 128, A: 255}), test.ShouldEqual, 0)
	test.That(t, p.Nearest(color.NRGBA{}), test.ShouldEqual, 0)
}

func TestPaletteRoundTrip(t *testing.T) {
	m := NewMask(3, 3)
	m.Set(0, 0, 1)
	m.Set(1, 1, 13)
	m.Set(2, 2, 18)
	p := CityscapesPalette()
	decoded, err := p.Decode(p.Colorize(m))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.Classes, test.ShouldResemble, m.Classes)

	_, err = Palette{}.Decode(p.Colorize(m))
	test.That(t, err, test.ShouldNotBeNil)
}
