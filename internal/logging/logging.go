// Package logging wires up the zap loggers used for diagnostics. All log
// output goes to stderr so that stdout only ever carries query results.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the verbosity. Debug enables component entry/exit logging,
// Trace additionally enables byte-level traces. With both off only warnings
// and errors are emitted.
type Config struct {
	Debug bool
	Trace bool
}

// New returns the main logger and the byte-level trace logger. The trace
// logger is a nop unless Trace is set, callers log to it unconditionally.
func New(cfg Config) (log *zap.SugaredLogger, trace *zap.SugaredLogger) {
	level := zapcore.WarnLevel
	if cfg.Debug || cfg.Trace {
		level = zapcore.DebugLevel
	}

	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = "" // single-shot CLI, timestamps are noise

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(os.Stderr),
		level,
	)

	log = zap.New(core).Sugar()

	if cfg.Trace {
		trace = log.Named("trace")
	} else {
		trace = zap.NewNop().Sugar()
	}

	return log, trace
}
