package utils

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestConfigValidationErrors(t *testing.T) {
	err := NewConfigValidationFieldRequiredError("geometry", "n_slices")
	test.That(t, err.Error(), test.ShouldEqual, `error validating "geometry": "n_slices" is required`)
	test.That(t, IsConfigError(err), test.ShouldBeTrue)

	wrapped := errors.Wrap(err, "failed to start")
	test.That(t, IsConfigError(wrapped), test.ShouldBeTrue)
	var ce *ConfigError
	test.That(t, errors.As(wrapped, &ce), test.ShouldBeTrue)
	test.That(t, ce.Path, test.ShouldEqual, "geometry")

	err = NewConfigValidationRangeError("pid", "kp", -1, "finite")
	test.That(t, err.Error(), test.ShouldContainSubstring, `"kp" must be finite, got -1`)

	bare := &ConfigError{Err: errors.New("no frames")}
	test.That(t, bare.Error(), test.ShouldEqual, "invalid config: no frames")
	test.That(t, IsConfigError(errors.New("other")), test.ShouldBeFalse)
}

func TestUnexpectedTypeError(t *testing.T) {
	err := NewUnexpectedTypeError[[]int]([]float32{1})
	test.That(t, err.Error(), test.ShouldEqual, "expected []int but got []float32")
}

func TestAttributeMapDecode(t *testing.T) {
	type target struct {
		Path    string  `json:"path"`
		Threads int     `json:"threads"`
		Scale   float64 `json:"scale"`
	}
	am := AttributeMap{"path": "/tmp/masks", "threads": 2, "scale": "0.5"}
	test.That(t, am.Has("path"), test.ShouldBeTrue)
	test.That(t, am.Has("nope"), test.ShouldBeFalse)

	var out target
	test.That(t, am.Decode(&out), test.ShouldBeNil)
	test.That(t, out, test.ShouldResemble, target{Path: "/tmp/masks", Threads: 2, Scale: 0.5})

	bad := AttributeMap{"pathh": "/tmp"}
	err := bad.Decode(&out)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "pathh")
}
