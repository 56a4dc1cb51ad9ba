// Package inference adapts a semantic segmentation network to a
// segmentation.Segmenter. It owns the conversion of a frame into the network's
// input tensor and of the network's per-class scores back into a Mask; running
// the network itself is left to a Model implementation.
package inference

import (
	"context"
	"image"

	"github.com/edaniels/golog"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/whizz-mobility/pathsteer/utils"
	"github.com/whizz-mobility/pathsteer/vision/segmentation"
)

// A Model runs a segmentation network. The input is a float32 tensor of shape
// [1, 3, H, W]; the output holds per-class scores shaped [1, C, H, W] or [C, H, W].
type Model interface {
	Infer(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error)
}

// ModelFunc lets an ordinary function serve as a Model.
type ModelFunc func(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error)

// Infer calls f.
func (f ModelFunc) Infer(ctx context.Context, input *tensor.Dense) (*tensor.Dense, error) {
	return f(ctx, input)
}

// Channel orders for the network input.
const (
	ChannelsBGR = "bgr"
	ChannelsRGB = "rgb"
)

// Config describes the input a Model expects.
type Config struct {
	InputWidth  int `json:"input_width"`
	InputHeight int `json:"input_height"`
	// Resize scales frames of any size to the input size. Without it a frame of
	// the wrong size is an error.
	Resize   bool   `json:"resize"`
	Channels string `json:"channels,omitempty"`
	// Mean and Std are per input channel, in Channels order, on a 0-255 scale.
	Mean []float64 `json:"mean,omitempty"`
	Std  []float64 `json:"std,omitempty"`
}

// DefaultConfig matches a DeepLab model trained on Cityscapes with ImageNet
// normalisation.
func DefaultConfig() Config {
	return Config{
		InputWidth:  513,
		InputHeight: 513,
		Resize:      true,
		Channels:    ChannelsBGR,
		Mean:        []float64{0.406 * 255, 0.456 * 255, 0.485 * 255},
		Std:         []float64{0.225 * 255, 0.224 * 255, 0.229 * 255},
	}
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	if c.InputWidth <= 0 {
		return utils.NewConfigValidationRangeError(path, "input_width", c.InputWidth, "positive")
	}
	if c.InputHeight <= 0 {
		return utils.NewConfigValidationRangeError(path, "input_height", c.InputHeight, "positive")
	}
	switch c.Channels {
	case "", ChannelsBGR, ChannelsRGB:
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown channel order %q", c.Channels))
	}
	if len(c.Mean) != 0 && len(c.Mean) != 3 {
		return utils.NewConfigValidationError(path, errors.Errorf("mean needs 3 values, got %d", len(c.Mean)))
	}
	if len(c.Std) != 0 && len(c.Std) != 3 {
		return utils.NewConfigValidationError(path, errors.Errorf("std needs 3 values, got %d", len(c.Std)))
	}
	for i, s := range c.Std {
		if s <= 0 || !utils.IsFinite(s) {
			return utils.NewConfigValidationError(path, errors.Errorf("std[%d] must be positive, got %v", i, s))
		}
	}
	return nil
}

// TensorSegmenter segments frames with a Model.
type TensorSegmenter struct {
	model  Model
	cfg    Config
	mean   [3]float32
	std    [3]float32
	bgr    bool
	logger golog.Logger
}

// NewTensorSegmenter returns a TensorSegmenter running model.
func NewTensorSegmenter(model Model, cfg Config, logger golog.Logger) (*TensorSegmenter, error) {
	if model == nil {
		return nil, errors.New("no model given")
	}
	if err := cfg.Validate("inference"); err != nil {
		return nil, err
	}
	ts := &TensorSegmenter{
		model:  model,
		cfg:    cfg,
		std:    [3]float32{1, 1, 1},
		bgr:    cfg.Channels != ChannelsRGB,
		logger: logger,
	}
	for i := range cfg.Mean {
		ts.mean[i] = float32(cfg.Mean[i])
	}
	for i := range cfg.Std {
		ts.std[i] = float32(cfg.Std[i])
	}
	return ts, nil
}

// Segmenter exposes ts as a segmentation.Segmenter.
func (ts *TensorSegmenter) Segmenter() segmentation.Segmenter {
	return ts.Segment
}

// Segment runs the model on img and returns the most likely class per pixel at
// the model's resolution.
func (ts *TensorSegmenter) Segment(ctx context.Context, img image.Image) (*segmentation.Mask, error) {
	input, err := ts.Preprocess(img)
	if err != nil {
		return nil, err
	}
	output, err := ts.model.Infer(ctx, input)
	if err != nil {
		return nil, errors.Wrap(err, "model inference failed")
	}
	return MaskFromScores(output)
}

// Preprocess converts img into the model's normalised [1, 3, H, W] input.
func (ts *TensorSegmenter) Preprocess(img image.Image) (*tensor.Dense, error) {
	w, h := ts.cfg.InputWidth, ts.cfg.InputHeight
	b := img.Bounds()
	if b.Dx() != w || b.Dy() != h {
		if !ts.cfg.Resize {
			return nil, errors.Errorf("frame is %dx%d but the model expects %dx%d", b.Dx(), b.Dy(), w, h)
		}
		ts.logger.Debugw("resizing frame", "from", b.Size(), "to", image.Pt(w, h))
		img = resize.Resize(uint(w), uint(h), img, resize.Bilinear)
		b = img.Bounds()
	}

	plane := w * h
	data := make([]float32, 3*plane)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			px := [3]float32{float32(r >> 8), float32(g >> 8), float32(bl >> 8)}
			if ts.bgr {
				px[0], px[2] = px[2], px[0]
			}
			for c := 0; c < 3; c++ {
				data[c*plane+y*w+x] = (px[c] - ts.mean[c]) / ts.std[c]
			}
		}
	}
	return tensor.New(tensor.WithShape(1, 3, h, w), tensor.WithBacking(data)), nil
}

// MaskFromScores picks the highest scoring class per pixel from scores shaped
// [1, C, H, W] or [C, H, W].
func MaskFromScores(scores *tensor.Dense) (*segmentation.Mask, error) {
	if scores == nil {
		return nil, errors.New("model returned no output")
	}
	shape := scores.Shape()
	switch {
	case len(shape) == 4 && shape[0] == 1:
	case len(shape) == 3:
	default:
		return nil, errors.Errorf("cannot make a mask from scores of shape %v", shape)
	}
	classAxis := len(shape) - 3
	height, width := shape[len(shape)-2], shape[len(shape)-1]

	best, err := scores.Argmax(classAxis)
	if err != nil {
		return nil, errors.Wrap(err, "argmax over classes failed")
	}
	var classes []int
	switch data := best.Data().(type) {
	case []int:
		classes = append([]int(nil), data...)
	case []int64:
		classes = make([]int, len(data))
		for i, v := range data {
			classes[i] = int(v)
		}
	default:
		return nil, utils.NewUnexpectedTypeError[[]int](data)
	}
	return segmentation.NewMaskFromClasses(width, height, classes)
}
