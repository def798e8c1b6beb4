package memory

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// LogNotifier records rejection notifications with structured logging only.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyRejected(ctx context.Context, applicationID uuid.UUID, reason string) error {
	n.logger.Info("application rejected",
		slog.String("application_id", applicationID.String()),
		slog.String("reason", reason))
	return nil
}
