package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.viam.com/test"
)

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		conf Config
		err  string
	}{
		{Config{}, ""},
		{Config{Level: "debug", Format: FormatJSON}, ""},
		{Config{Level: "warn", Format: FormatConsole}, ""},
		{Config{Level: "loud"}, "log: bad log level"},
		{Config{Format: "xml"}, `log: unknown log format "xml"`},
	} {
		err := tc.conf.Validate("log")
		if tc.err == "" {
			test.That(t, err, test.ShouldBeNil)
		} else {
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		}
	}
}

func TestFromConfig(t *testing.T) {
	logger, err := FromConfig("steer", Config{Level: "warn"}, false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.Desugar().Core().Enabled(zapcore.InfoLevel), test.ShouldBeFalse)
	test.That(t, logger.Desugar().Core().Enabled(zapcore.WarnLevel), test.ShouldBeTrue)

	logger, err = FromConfig("steer", Config{Level: "warn", Format: FormatJSON}, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logger.Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeTrue)

	_, err = FromConfig("steer", Config{Level: "loud"}, false)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewLoggers(t *testing.T) {
	test.That(t, NewLogger("a").Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeFalse)
	test.That(t, NewDebugLogger("b").Desugar().Core().Enabled(zapcore.DebugLevel), test.ShouldBeTrue)
	test.That(t, NewNopLogger().Desugar().Core().Enabled(zapcore.ErrorLevel), test.ShouldBeFalse)
}

func TestFromConfigFile(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "logs", "pathsteer.log")
	logger, err := FromConfig("steer", Config{Level: "info", File: fn}, false)
	test.That(t, err, test.ShouldBeNil)
	logger.Debugw("hidden", "n", 1)
	logger.Infow("suggested steer", "command", 2.5)
	//nolint:errcheck
	logger.Sync()

	b, err := os.ReadFile(fn)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(b), test.ShouldContainSubstring, `"msg":"suggested steer"`)
	test.That(t, string(b), test.ShouldContainSubstring, `"command":2.5`)
	test.That(t, string(b), test.ShouldNotContainSubstring, "hidden")

	test.That(t, (&Config{MaxSizeMB: -1}).Validate("log"), test.ShouldNotBeNil)
}
