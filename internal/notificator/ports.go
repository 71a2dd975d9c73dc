package notificator

import "context"

type Notificator interface {
	// Notify sends an error report to every admin chat.
	Notify(ctx context.Context, err error, details string) error
	UserNotify(ctx context.Context, chatID int64, text string) error
}
