package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// Read reads a config from the given file, substituting environment variables
// first.
func Read(filePath string, logger golog.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from. Sections left out
// of the JSON keep their defaults, except ridable_class_id which is required.
func FromReader(originalPath string, r io.Reader, logger golog.Logger) (*Config, error) {
	cfg := Default()
	cfg.RidableClassID = nil
	cfg.ConfigFilePath = originalPath

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	if cfg.RateHz == 0 {
		cfg.RateHz = DefaultRateHz
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Calibration.Coefficients) == 1 {
		logger.Warnw("calibration polynomial is constant; every bearing maps to the same value",
			"coefficients", cfg.Calibration.Coefficients)
	}
	return cfg, nil
}
