package main

import (
	"sync"

	"go.uber.org/zap"
)

var (
	loggerMu sync.Mutex
	logger   *zap.SugaredLogger
)

// InitLogger builds the process-wide logger. Debug mode switches to the
// human-readable development encoder.
func InitLogger(debug bool) error {
	var (
		base *zap.Logger
		err  error
	)
	if debug {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	loggerMu.Lock()
	logger = base.Sugar()
	loggerMu.Unlock()
	return nil
}

// Log returns the shared logger, initializing a development one on first
// use so tests and tools get output without explicit setup.
func Log() *zap.SugaredLogger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		base, _ := zap.NewDevelopment()
		logger = base.Sugar()
	}
	return logger
}

func SyncLogger() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger != nil {
		_ = logger.Sync()
	}
}
