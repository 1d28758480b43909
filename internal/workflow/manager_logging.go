package workflow

import (
	"context"
	"log/slog"

	"captionize/internal/logging"
	"captionize/internal/services"
)

func (m *Manager) jobContext(ctx context.Context, jobID, stage string) context.Context {
	if jobID != "" {
		ctx = services.WithJobID(ctx, jobID)
	}
	if stage != "" {
		ctx = services.WithStage(ctx, stage)
	}
	return ctx
}

func (m *Manager) loggerFor(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, m.logger)
}
