package notificator

import (
	"context"

	"go.uber.org/zap"
)

// LogInfra writes notifications to the log instead of Telegram.
// Used when no bot token is configured.
type LogInfra struct {
	log *zap.SugaredLogger
}

func NewLogInfra(log *zap.SugaredLogger) *LogInfra {
	return &LogInfra{log: log}
}

func (l *LogInfra) Notify(ctx context.Context, err error, details string) error {
	l.log.Errorw("admin notification", "error", err, "details", details)
	return nil
}

func (l *LogInfra) UserNotify(ctx context.Context, chatID int64, text string) error {
	l.log.Infow("user notification", "chat_id", chatID, "text", text)
	return nil
}
