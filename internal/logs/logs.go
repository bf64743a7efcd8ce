// Package logs builds the structured logger used by ubuntu-fetcher.
package logs

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output values with special meaning.
const (
	OutputStderr  = "stderr"
	OutputStdout  = "stdout"
	OutputDiscard = ""
)

// Options configures New.
type Options struct {
	// Level is a zap level name (debug, info, warn, error). Defaults to warn.
	Level string

	// Format is "console" (default) or "json".
	Format string

	// Output is stderr, stdout or a file path. Empty discards all logs.
	Output string
}

// New builds a zap logger from opts.
func New(opts Options) (*zap.Logger, error) {
	if opts.Output == OutputDiscard {
		return zap.NewNop(), nil
	}

	var cfg zap.Config
	switch opts.Format {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, eris.Errorf("logs: unknown format %q", opts.Format)
	}

	level := opts.Level
	if level == "" {
		level = "warn"
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, eris.Wrap(err, "logs: parse log level")
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{opts.Output}
	cfg.ErrorOutputPaths = []string{OutputStderr}
	cfg.DisableStacktrace = true
	cfg.Sampling = nil

	logger, err := cfg.Build()
	if err != nil {
		return nil, eris.Wrap(err, "logs: build logger")
	}
	return logger, nil
}
