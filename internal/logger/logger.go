// Package logger builds the process-wide zap logger.
package logger

import "go.uber.org/zap"

// New returns a production JSON logger, or a human-readable development
// logger when the server runs in debug mode.
func New(mode string) (*zap.Logger, error) {
	if mode == "debug" {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	return cfg.Build()
}
