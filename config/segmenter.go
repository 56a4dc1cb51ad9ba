package config

import (
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"github.com/whizz-mobility/pathsteer/utils"
	"github.com/whizz-mobility/pathsteer/vision/segmentation"
)

// SegmenterType names a way of turning frames into masks.
type SegmenterType string

// The set of segmenters that can be built from a config.
const (
	// LabelImageSegmenter reads classes straight from label images.
	LabelImageSegmenter = SegmenterType("label_image")
	// PaletteSegmenter maps the colours of a colourised mask back to classes.
	PaletteSegmenter = SegmenterType("palette")
)

// SegmenterConfig selects a segmenter and its type specific attributes.
type SegmenterConfig struct {
	Type       SegmenterType      `json:"type"`
	Attributes utils.AttributeMap `json:"attributes,omitempty"`
}

// LabelImageConfig has no attributes.
type LabelImageConfig struct{}

// PaletteConfig lists the class colours, either as a named preset or as hex
// strings indexed by class.
type PaletteConfig struct {
	Preset string   `json:"preset,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

// PresetCityscapes is the 19 class Cityscapes palette.
const PresetCityscapes = "cityscapes"

// RegisteredSegmenterSchemas maps segmenter types to the attributes they take.
var RegisteredSegmenterSchemas = map[SegmenterType]*jsonschema.Schema{
	LabelImageSegmenter: jsonschema.Reflect(&LabelImageConfig{}),
	PaletteSegmenter:    jsonschema.Reflect(&PaletteConfig{}),
}

func (pc *PaletteConfig) palette() (segmentation.Palette, error) {
	switch {
	case pc.Preset != "" && len(pc.Colors) != 0:
		return nil, errors.New("set either preset or colors, not both")
	case pc.Preset == PresetCityscapes:
		return segmentation.CityscapesPalette(), nil
	case pc.Preset != "":
		return nil, errors.Errorf("unknown palette preset %q", pc.Preset)
	case len(pc.Colors) == 0:
		return nil, errors.New("palette needs a preset or colors")
	}
	return segmentation.ParsePalette(pc.Colors)
}

// Validate ensures the type is known and its attributes decode.
func (sc *SegmenterConfig) Validate(path string) error {
	_, err := sc.build()
	if err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// Build returns the configured segmenter.
func (sc *SegmenterConfig) Build() (segmentation.Segmenter, error) {
	seg, err := sc.build()
	if err != nil {
		return nil, utils.NewConfigValidationError("segmenter", err)
	}
	return seg, nil
}

func (sc *SegmenterConfig) build() (segmentation.Segmenter, error) {
	switch sc.Type {
	case LabelImageSegmenter:
		var conf LabelImageConfig
		if err := sc.Attributes.Decode(&conf); err != nil {
			return nil, err
		}
		return segmentation.NewLabelImageSegmenter(nil), nil
	case PaletteSegmenter:
		var conf PaletteConfig
		if err := sc.Attributes.Decode(&conf); err != nil {
			return nil, err
		}
		pal, err := conf.palette()
		if err != nil {
			return nil, err
		}
		return segmentation.NewLabelImageSegmenter(pal), nil
	case "":
		return nil, errors.New(`"type" is required`)
	default:
		return nil, errors.Errorf("unknown segmenter type %q", sc.Type)
	}
}

// DisplayPalette returns the palette masks are drawn with: the configured one for
// palette segmenters, Cityscapes otherwise.
func (sc *SegmenterConfig) DisplayPalette() (segmentation.Palette, error) {
	if sc.Type != PaletteSegmenter {
		return segmentation.CityscapesPalette(), nil
	}
	var conf PaletteConfig
	if err := sc.Attributes.Decode(&conf); err != nil {
		return nil, err
	}
	return conf.palette()
}
