package rimage

import (
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func writeFrames(t *testing.T, dir string, names ...string) {
	t.Helper()
	for i, name := range names {
		img := image.NewGray(image.Rect(0, 0, 2, 2))
		img.SetGray(0, 0, color.Gray{Y: uint8(i + 1)})
		test.That(t, WriteImageToFile(filepath.Join(dir, name), img), test.ShouldBeNil)
	}
}

func TestDirectorySource(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	// written out of order; played back sorted
	writeFrames(t, dir, "frame_002.png", "frame_001.png")
	test.That(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600), test.ShouldBeNil)
	test.That(t, os.Mkdir(filepath.Join(dir, "sub.png"), 0o750), test.ShouldBeNil)

	src, err := NewDirectorySource(dir, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, src.Len(), test.ShouldEqual, 2)

	img, release, err := src.Next(ctx)
	test.That(t, err, test.ShouldBeNil)
	release()
	test.That(t, color.GrayModel.Convert(img.At(0, 0)).(color.Gray).Y, test.ShouldEqual, uint8(2))

	img, release, err = src.Next(ctx)
	test.That(t, err, test.ShouldBeNil)
	release()
	test.That(t, color.GrayModel.Convert(img.At(0, 0)).(color.Gray).Y, test.ShouldEqual, uint8(1))

	_, _, err = src.Next(ctx)
	test.That(t, err, test.ShouldEqual, io.EOF)

	test.That(t, src.Close(), test.ShouldBeNil)
	_, _, err = src.Next(ctx)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "closed")
}

func TestDirectorySourceLoop(t *testing.T) {
	dir := t.TempDir()
	writeFrames(t, dir, "a.png")
	src, err := NewDirectorySource(dir, true)
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 3; i++ {
		_, release, err := src.Next(context.Background())
		test.That(t, err, test.ShouldBeNil)
		release()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = src.Next(ctx)
	test.That(t, err, test.ShouldEqual, context.Canceled)
}

func TestDirectorySourcePPM(t *testing.T) {
	dir := t.TempDir()
	raw := append([]byte("P6\n2 1\n255\n"), 255, 0, 0, 0, 0, 255)
	test.That(t, os.WriteFile(filepath.Join(dir, "frame.ppm"), raw, 0o600), test.ShouldBeNil)

	src, err := NewDirectorySource(dir, false)
	test.That(t, err, test.ShouldBeNil)
	img, release, err := src.Next(context.Background())
	test.That(t, err, test.ShouldBeNil)
	release()
	test.That(t, img.Bounds().Size(), test.ShouldResemble, image.Pt(2, 1))
	r, g, b, _ := img.At(1, 0).RGBA()
	test.That(t, []uint32{r >> 8, g >> 8, b >> 8}, test.ShouldResemble, []uint32{0, 0, 255})
}

func TestDirectorySourceErrors(t *testing.T) {
	_, err := NewDirectorySource(t.TempDir(), false)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "no images")

	_, err = NewDirectorySource(filepath.Join(t.TempDir(), "missing"), false)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestStaticSource(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 1, 1))
	src := &StaticSource{Img: img}
	got, release, err := src.Next(context.Background())
	test.That(t, err, test.ShouldBeNil)
	release()
	test.That(t, got, test.ShouldEqual, img)
	test.That(t, src.Close(), test.ShouldBeNil)
}
