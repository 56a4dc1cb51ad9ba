package cli

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"

	"github.com/whizz-mobility/pathsteer/rimage"
)

const testConfig = `{
	"ridable_class_id": 2,
	"rate_hz": 1000,
	"geometry": {
		"crop_upper_ratio": 0,
		"crop_lower_ratio": 1,
		"n_slices": 4,
		"min_ridable_fraction": 0.04
	},
	"log": {"level": "error"}
}`

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := NewApp(&out, &errOut)
	err := app.RunContext(context.Background(), append([]string{"pathsteer"}, args...))
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "pathsteer.json")
	test.That(t, os.WriteFile(fn, []byte(testConfig), 0o600), test.ShouldBeNil)
	return fn
}

func writeFrames(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := image.NewGray(image.Rect(0, 0, 20, 20))
	for y := 5; y < 10; y++ {
		path.Pix[y*path.Stride+16] = 2
	}
	test.That(t, rimage.WriteImageToFile(filepath.Join(dir, "000.png"), path), test.ShouldBeNil)
	test.That(t, rimage.WriteImageToFile(filepath.Join(dir, "001.png"), image.NewGray(image.Rect(0, 0, 20, 20))), test.ShouldBeNil)
	return dir
}

func TestRunAction(t *testing.T) {
	cfg := writeConfig(t)
	frames := writeFrames(t)
	overlays := filepath.Join(t.TempDir(), "overlays")

	plot := filepath.Join(t.TempDir(), "run.png")
	out, _, err := runApp(t, "--config", cfg, "run", "--frames", frames, "--overlay-dir", overlays, "--print-commands", "--plot", plot)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "steer -26.57")
	test.That(t, out, test.ShouldContainSubstring, "2 frames (1 steered, 1 no path, 0 errors)")

	for _, fn := range []string{"frame_000000.png", "frame_000001.png"} {
		img, err := rimage.NewImageFromFile(filepath.Join(overlays, fn))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, img.Bounds().Size(), test.ShouldResemble, image.Pt(20, 20))
	}
	_, err = os.Stat(plot)
	test.That(t, err, test.ShouldBeNil)
}

func TestRunActionManual(t *testing.T) {
	out, errOut, err := runApp(t, "--config", writeConfig(t), "run", "--frames", writeFrames(t), "--manual", "--print-commands")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldContainSubstring, "manual mode")
	// manual mode with no prior output holds 0
	test.That(t, out, test.ShouldContainSubstring, "steer 0.00")
}

func TestRunActionErrors(t *testing.T) {
	frames := writeFrames(t)

	_, _, err := runApp(t, "run", "--frames", frames)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "needs --config")

	_, _, err = runApp(t, "--config", writeConfig(t), "run", "--frames", t.TempDir())
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no images found")

	_, _, err = runApp(t, "--config", writeConfig(t), "run", "--frames", frames, "--rate", "-1")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "rate_hz")

	bad := filepath.Join(t.TempDir(), "bad.json")
	test.That(t, os.WriteFile(bad, []byte(`{"geometry": {}}`), 0o600), test.ShouldBeNil)
	_, _, err = runApp(t, "--config", bad, "run", "--frames", frames)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "ridable_class_id")
}

func TestGeometryAction(t *testing.T) {
	out, _, err := runApp(t, "geometry", "--width", "513", "--height", "513")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "513x513 crop [128,448) 20 slices of 16 rows")
	test.That(t, out, test.ShouldContainSubstring, "vehicle at (256.5, 512.0)")
	test.That(t, out, test.ShouldContainSubstring, "[432,448)")
	test.That(t, out, test.ShouldContainSubstring, "-72.5")

	_, _, err = runApp(t, "--config", writeConfig(t), "geometry", "--width", "20", "--height", "2")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot hold 4 slices")
}

func TestSchemaAction(t *testing.T) {
	out, _, err := runApp(t, "schema")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "ridable_class_id")
	test.That(t, out, test.ShouldContainSubstring, "palette")
}

func TestColorizeAction(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "mask.png")
	labels := image.NewGray(image.Rect(0, 0, 4, 2))
	labels.Pix[1] = 1
	test.That(t, rimage.WriteImageToFile(in, labels), test.ShouldBeNil)
	out := filepath.Join(dir, "color.png")

	stdout, _, err := runApp(t, "colorize", "--in", in, "--out", out)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, stdout, test.ShouldContainSubstring, "2 classes present")

	img, err := rimage.NewImageFromFile(out)
	test.That(t, err, test.ShouldBeNil)
	road := color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA)
	test.That(t, road, test.ShouldResemble, color.NRGBA{R: 128, G: 64, B: 128, A: 255})
	sidewalk := color.NRGBAModel.Convert(img.At(1, 0)).(color.NRGBA)
	test.That(t, sidewalk, test.ShouldResemble, color.NRGBA{R: 244, G: 35, B: 232, A: 255})

	_, _, err = runApp(t, "colorize", "--in", filepath.Join(dir, "missing.png"), "--out", out)
	test.That(t, err, test.ShouldNotBeNil)
}
