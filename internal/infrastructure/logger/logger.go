package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the application logger. With debug enabled it uses the
// human-readable development config at debug level; otherwise the production
// JSON config at info level.
func New(debug bool) (*zap.SugaredLogger, error) {
	var logger *zap.Logger
	var err error

	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		logger, err = cfg.Build()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything, for tests and callers that
// do not want log output.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
