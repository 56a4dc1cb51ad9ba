package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError is returned for configuration that cannot be used. It is fatal at
// start-up; callers should not retry with the same values.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid config: %s", e.Err)
	}
	return fmt.Sprintf("error validating %q: %s", e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Cause is used by github.com/pkg/errors.
func (e *ConfigError) Cause() error {
	return e.Err
}

// NewConfigValidationError returns a config validation error at the given path.
func NewConfigValidationError(path string, err error) error {
	return &ConfigError{Path: path, Err: err}
}

// NewConfigValidationFieldRequiredError is used when a required field is missing.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, errors.Errorf("%q is required", field))
}

// NewConfigValidationRangeError is used when a numeric field lies outside of its allowed range.
func NewConfigValidationRangeError(path, field string, value interface{}, bounds string) error {
	return NewConfigValidationError(path, errors.Errorf("%q must be %s, got %v", field, bounds, value))
}

// IsConfigError reports whether err is, or wraps, a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError[ExpectedT any](actual interface{}) error {
	return errors.Errorf("expected %T but got %T", *new(ExpectedT), actual)
}
