package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/whizz-mobility/pathsteer/config"
	"github.com/whizz-mobility/pathsteer/rimage"
	"github.com/whizz-mobility/pathsteer/vision/pathing"
	"github.com/whizz-mobility/pathsteer/vision/segmentation"
)

func (a *pathsteerApp) geometryAction(c *cli.Context) error {
	cfg, err := a.loadConfig(c, false)
	if err != nil {
		return err
	}
	geo, err := pathing.NewFrameGeometry(c.Int(geometryFlagWidth), c.Int(geometryFlagHeight), cfg.Geometry)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", geo)
	originX, originY := geo.Origin()
	printf(c.App.Writer, "vehicle at (%.1f, %.1f)", originX, originY)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Slice", "Rows", "Origin dy"})
	for i := 0; i < geo.NumSlices; i++ {
		b := geo.SliceBounds(i)
		mid := float64(b.Min.Y+b.Max.Y-1) / 2
		t.AppendRow(table.Row{i, fmt.Sprintf("[%d,%d)", b.Min.Y, b.Max.Y), fmt.Sprintf("%.1f", mid-originY)})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func (a *pathsteerApp) schemaAction(c *cli.Context) error {
	b, err := config.SchemaJSON()
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", b)
	return nil
}

func (a *pathsteerApp) colorizeAction(c *cli.Context) error {
	cfg, err := a.loadConfig(c, false)
	if err != nil {
		return err
	}
	pal, err := cfg.Segmenter.DisplayPalette()
	if err != nil {
		return err
	}
	img, err := rimage.NewImageFromFile(c.String(colorizeFlagIn))
	if err != nil {
		return err
	}
	mask, err := segmentation.MaskFromLabelImage(img)
	if err != nil {
		return err
	}
	out := c.String(colorizeFlagOut)
	if err := rimage.WriteImageToFile(out, pal.Colorize(mask)); err != nil {
		return err
	}
	printf(c.App.Writer, "wrote %s (%dx%d, %d classes present)", out, mask.Width, mask.Height, len(lo.Uniq(mask.Classes)))
	return nil
}
