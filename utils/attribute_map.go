package utils

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// AttributeMap is a free-form set of attributes for a configurable part whose
// concrete shape depends on its type.
type AttributeMap map[string]interface{}

// Has reports whether name is set.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// Decode decodes the attributes into a typed config, matching keys against the
// config's json tags.
func (am AttributeMap) Decode(into interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           into,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create attribute decoder")
	}
	if err := decoder.Decode(map[string]interface{}(am)); err != nil {
		return errors.Wrap(err, "failed to decode attributes")
	}
	return nil
}
