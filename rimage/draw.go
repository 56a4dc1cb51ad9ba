package rimage

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
	"gonum.org/v1/gonum/spatial/r2"
)

var font *truetype.Font

// init sets up the fonts we want to use.
func init() {
	var err error
	font, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Font returns the font we use for drawing.
func Font() *truetype.Font {
	return font
}

// Colors used for path overlays.
var (
	Red    = color.NRGBA{R: 255, A: 255}
	Blue   = color.NRGBA{B: 255, A: 255}
	Yellow = color.NRGBA{R: 255, G: 255, A: 255}
	White  = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// DrawString writes a string to the given context at a particular point.
func DrawString(dc *gg.Context, text string, p image.Point, c color.Color, size float64) {
	dc.SetFontFace(truetype.NewFace(Font(), &truetype.Options{Size: size}))
	dc.SetColor(c)
	dc.DrawStringWrapped(text, float64(p.X), float64(p.Y), 0, 0, float64(dc.Width()), 1, 0)
}

// DrawRectangleEmpty draws the given rectangle into the context. The positions of the
// rectangle are used to place it within the context.
func DrawRectangleEmpty(dc *gg.Context, r image.Rectangle, c color.Color, width float64) {
	dc.SetColor(c)
	dc.SetLineWidth(width)
	dc.DrawRectangle(float64(r.Min.X), float64(r.Min.Y), float64(r.Dx()), float64(r.Dy()))
	dc.Stroke()
}

// PathOverlay describes what DrawPathOverlay draws. All coordinates are in the
// Size frame.
type PathOverlay struct {
	// Size is the frame the coordinates refer to, normally the mask size.
	Size image.Point
	// Mask is a colourised mask blended over the frame when set.
	Mask image.Image
	// Crop outlines the sliced region when non-empty.
	Crop      image.Rectangle
	Waypoints []r2.Vec
	// Gradient is the fitted heading, dx/dy, drawn when Fitted is set.
	Gradient float64
	Fitted   bool
	Text     string
}

const maskOpacity = 0.4

// DrawPathOverlay draws the waypoints as a red polyline and the fitted heading as
// a blue line from the bottom centre of the frame, over a copy of base scaled to
// ov.Size.
func DrawPathOverlay(base image.Image, ov PathOverlay) image.Image {
	size := ov.Size
	if size.X <= 0 || size.Y <= 0 {
		size = base.Bounds().Size()
	}
	canvas := imaging.Clone(base)
	if canvas.Bounds().Size() != size {
		canvas = imaging.Resize(canvas, size.X, size.Y, imaging.Linear)
	}
	if ov.Mask != nil {
		mask := ov.Mask
		if mask.Bounds().Size() != size {
			mask = imaging.Resize(mask, size.X, size.Y, imaging.NearestNeighbor)
		}
		canvas = imaging.Overlay(canvas, mask, image.Pt(0, 0), maskOpacity)
	}

	dc := gg.NewContextForImage(canvas)
	w, h := float64(size.X), float64(size.Y)

	if !ov.Crop.Empty() {
		DrawRectangleEmpty(dc, ov.Crop, Yellow, 1)
	}

	if len(ov.Waypoints) > 0 {
		dc.SetColor(Red)
		dc.SetLineWidth(2)
		dc.MoveTo(ov.Waypoints[0].X, ov.Waypoints[0].Y)
		for _, p := range ov.Waypoints[1:] {
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
		for _, p := range ov.Waypoints {
			dc.DrawCircle(p.X, p.Y, 2)
		}
		dc.Fill()
	}

	if ov.Fitted {
		dc.SetColor(Blue)
		dc.SetLineWidth(2)
		dc.MoveTo(w/2, h)
		dc.LineTo(ov.Gradient*(1-h)+w/2, 0)
		dc.Stroke()
	}

	if ov.Text != "" {
		DrawString(dc, ov.Text, image.Pt(4, 4), White, 12)
	}
	return dc.Image()
}
