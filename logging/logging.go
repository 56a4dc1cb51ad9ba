// Package logging builds the zap-backed loggers used across pathsteer.
package logging

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// FormatConsole writes human readable, colored lines.
	FormatConsole = "console"
	// FormatJSON writes one JSON object per line.
	FormatJSON = "json"
)

// Config selects the level and encoding of the process logger.
type Config struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
	// File, when set, also receives every entry as JSON. It is rotated at
	// MaxSizeMB megabytes, keeping MaxBackups compressed copies.
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
}

const (
	defaultMaxSizeMB  = 100
	defaultMaxBackups = 3
)

// Validate ensures the level and format can be used to build a logger.
func (c *Config) Validate(path string) error {
	if c.Level != "" {
		if _, err := zap.ParseAtomicLevel(c.Level); err != nil {
			return errors.Wrapf(err, "%s: bad log level", path)
		}
	}
	switch c.Format {
	case "", FormatConsole, FormatJSON:
	default:
		return errors.Errorf("%s: unknown log format %q", path, c.Format)
	}
	if c.MaxSizeMB < 0 || c.MaxBackups < 0 {
		return errors.Errorf("%s: max_size_mb and max_backups must not be negative", path)
	}
	return nil
}

// NewLoggerConfig returns a new default logger config.
func NewLoggerConfig() zap.Config {
	// from https://github.com/uber-go/zap/blob/2314926ec34c23ee21f3dd4399438469668f8097/config.go#L135
	// but disable stacktraces, use same keys as prod, and color levels.
	return zap.Config{
		Level:    zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding: FormatConsole,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}
}

// NewLogger returns a new logger that outputs Info+ logs to stdout.
func NewLogger(name string) golog.Logger {
	return mustBuild(NewLoggerConfig(), name)
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout.
func NewDebugLogger(name string) golog.Logger {
	cfg := NewLoggerConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	return mustBuild(cfg, name)
}

// NewNopLogger returns a logger that drops everything.
func NewNopLogger() golog.Logger {
	return zap.NewNop().Sugar()
}

// FromConfig builds a named logger from the given config. debug forces the
// level to debug regardless of the config.
func FromConfig(name string, conf Config, debug bool) (golog.Logger, error) {
	cfg := NewLoggerConfig()
	if conf.Level != "" {
		level, err := zap.ParseAtomicLevel(conf.Level)
		if err != nil {
			return nil, err
		}
		cfg.Level = level
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if conf.Format == FormatJSON {
		cfg.Encoding = FormatJSON
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	var opts []zap.Option
	if conf.File != "" {
		opts = append(opts, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, fileCore(conf, cfg.Level))
		}))
	}
	logger, err := cfg.Build(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}
	return logger.Sugar().Named(name), nil
}

func fileCore(conf Config, level zap.AtomicLevel) zapcore.Core {
	sink := &lumberjack.Logger{
		Filename:   conf.File,
		MaxSize:    conf.MaxSizeMB,
		MaxBackups: conf.MaxBackups,
		Compress:   true,
	}
	if sink.MaxSize == 0 {
		sink.MaxSize = defaultMaxSizeMB
	}
	if sink.MaxBackups == 0 {
		sink.MaxBackups = defaultMaxBackups
	}
	encCfg := NewLoggerConfig().EncoderConfig
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(sink), level)
}

func mustBuild(cfg zap.Config, name string) golog.Logger {
	logger, err := cfg.Build()
	if err != nil {
		golog.Global().Fatal(err)
	}
	return logger.Sugar().Named(name)
}
