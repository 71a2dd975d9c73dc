package notificator

import (
	"context"

	"go.uber.org/zap"
)

type Service struct {
	infra Notificator
	log   *zap.SugaredLogger
}

func NewService(infra Notificator, log *zap.SugaredLogger) *Service {
	return &Service{infra: infra, log: log}
}

// Notify never fails the caller's flow; delivery problems are only logged.
func (s *Service) Notify(ctx context.Context, err error, details string) error {
	if sendErr := s.infra.Notify(ctx, err, details); sendErr != nil {
		s.log.Warnw("[notificator] admin notify failed", "error", sendErr, "original", err)
		return sendErr
	}
	return nil
}

func (s *Service) UserNotify(ctx context.Context, chatID int64, text string) error {
	if chatID == 0 {
		return nil
	}
	if err := s.infra.UserNotify(ctx, chatID, text); err != nil {
		s.log.Warnw("[notificator] user notify failed", "chat_id", chatID, "error", err)
		return err
	}
	return nil
}
