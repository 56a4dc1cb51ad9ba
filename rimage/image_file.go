package rimage

import (
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

// NewImageFromFile decodes the image stored at fn. Paletted and gray images keep
// their original type so label images can be read back as class indices.
func NewImageFromFile(fn string) (image.Image, error) {
	img, err := imaging.Open(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %q", fn)
	}
	return img, nil
}

// WriteImageToFile encodes img to fn, choosing the format from the file extension
// and creating the parent directory if needed.
func WriteImageToFile(fn string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(fn), 0o750); err != nil {
		return errors.Wrapf(err, "failed to create directory for %q", fn)
	}
	if err := imaging.Save(img, fn); err != nil {
		return errors.Wrapf(err, "failed to write image %q", fn)
	}
	return nil
}
