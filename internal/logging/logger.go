package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
}

// NewLogger builds a JSON logger writing to path. The terminal belongs to
// the UI, so with no path every entry is discarded.
func NewLogger(level, path string) (*Logger, error) {
	if path == "" {
		return &Logger{zap.NewNop()}, nil
	}
	if level == "" {
		level = "info"
	}

	config := zap.NewProductionConfig()

	// Parse log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	config.Sampling = nil

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{logger}, nil
}

// Close flushes buffered entries.
func (l *Logger) Close() error {
	return l.Sync()
}
