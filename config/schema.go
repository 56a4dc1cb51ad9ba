package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
)

// Schema returns the JSON schema of a config file.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{RequiredFromJSONSchemaTags: true}
	return r.Reflect(&Config{})
}

// SchemaJSON renders Schema and the per segmenter attribute schemas as indented
// JSON.
func SchemaJSON() ([]byte, error) {
	out := map[string]interface{}{
		"config":     Schema(),
		"segmenters": RegisteredSegmenterSchemas,
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal schema")
	}
	return b, nil
}
