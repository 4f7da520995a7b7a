package flow

import (
	"context"

	"go.uber.org/zap"

	"ticketHub/internal/model"
)

// Notification is the user-facing summary of a finished attempt.
type Notification struct {
	Title       string
	Description string
	Success     bool
}

type Notifier interface {
	Notify(n Notification)
}

// Recorder persists outcome records. storage.Storage satisfies it.
type Recorder interface {
	PutOutcomeBatch(ctx context.Context, records []model.OutcomeRecord) error
}

// LogNotifier writes notifications to the log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(note Notification) {
	fields := []zap.Field{zap.String("title", note.Title), zap.String("description", note.Description)}
	if note.Success {
		n.logger.Info("notification", fields...)
		return
	}
	n.logger.Warn("notification", fields...)
}
