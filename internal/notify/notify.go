// Package notify delivers fire-and-forget operator notifications.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Itecs-company/Alias/pkg/telegram"
)

const sendTimeout = 10 * time.Second

// Notifier sends a text notification. Delivery is best effort;
// failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// TelegramNotifier sends over a Telegram bot.
type TelegramNotifier struct {
	client telegram.Client
}

// NewTelegram wraps a Telegram client.
func NewTelegram(client telegram.Client) *TelegramNotifier {
	return &TelegramNotifier{client: client}
}

func (n *TelegramNotifier) Notify(ctx context.Context, text string) {
	// detach from the request context so an ending request cannot
	// cancel an in-flight notification
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	defer cancel()

	if err := n.client.SendMessage(sendCtx, text); err != nil {
		zap.L().Warn("notification delivery failed", zap.Error(err))
		return
	}
	zap.L().Debug("notification sent", zap.Int("length", len(text)))
}

// Noop discards notifications. Used when notifications are disabled
// in config.
type Noop struct{}

func (Noop) Notify(context.Context, string) {}
