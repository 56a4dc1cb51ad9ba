package rimage

import (
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "github.com/lmittmann/ppm" // register ppm
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// A FrameSource produces frames one at a time. The returned release function must
// be called once the caller is done with the frame. Next returns io.EOF once the
// source has no more frames.
type FrameSource interface {
	Next(ctx context.Context) (image.Image, func(), error)
	Close() error
}

// StaticSource returns the same image forever.
type StaticSource struct {
	Img image.Image
}

// Next returns the stored image.
func (ss *StaticSource) Next(ctx context.Context) (image.Image, func(), error) {
	return ss.Img, func() {}, nil
}

// Close does nothing.
func (ss *StaticSource) Close() error {
	return nil
}

var frameExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".ppm"}

// DirectorySource plays back the image files of a directory in lexical order.
type DirectorySource struct {
	mu     sync.Mutex
	dir    string
	files  []string
	next   int
	loop   bool
	closed bool
}

// NewDirectorySource lists the images in dir. With loop set, playback restarts
// from the first file instead of ending.
func NewDirectorySource(dir string, loop bool) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read frame directory %q", dir)
	}
	images := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return !e.IsDir() && lo.Contains(frameExtensions, strings.ToLower(filepath.Ext(e.Name())))
	})
	if len(images) == 0 {
		return nil, errors.Errorf("no images found in %q", dir)
	}
	files := lo.Map(images, func(e os.DirEntry, _ int) string {
		return filepath.Join(dir, e.Name())
	})
	sort.Strings(files)
	return &DirectorySource{dir: dir, files: files, loop: loop}, nil
}

// Len returns the number of frames in one pass over the directory.
func (ds *DirectorySource) Len() int {
	return len(ds.files)
}

// Next decodes the next frame.
func (ds *DirectorySource) Next(ctx context.Context) (image.Image, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ds.mu.Lock()
	if ds.closed {
		ds.mu.Unlock()
		return nil, nil, errors.Errorf("frame source %q is closed", ds.dir)
	}
	if ds.next >= len(ds.files) {
		if !ds.loop {
			ds.mu.Unlock()
			return nil, nil, io.EOF
		}
		ds.next = 0
	}
	fn := ds.files[ds.next]
	ds.next++
	ds.mu.Unlock()

	img, err := NewImageFromFile(fn)
	if err != nil {
		return nil, nil, err
	}
	return img, func() {}, nil
}

// Close stops playback.
func (ds *DirectorySource) Close() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.closed = true
	return nil
}
