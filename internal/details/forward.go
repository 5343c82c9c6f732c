package details

import (
	"context"

	"go.uber.org/zap"
)

// logForwarder stands in for the modal and navigation services when none are configured
type logForwarder struct {
	logger *zap.SugaredLogger
}

func (f *logForwarder) OpenSystemModal(_ context.Context, message string) error {
	f.logger.Infow("system modal requested", "message", message)

	return nil
}

func (f *logForwarder) Navigate(_ context.Context, path string) error {
	f.logger.Infow("navigation requested", "path", path)

	return nil
}
