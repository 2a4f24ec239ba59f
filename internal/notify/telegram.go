package notify

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rxtech-lab/signal-tracker/internal/logger"
	"github.com/rxtech-lab/signal-tracker/internal/types"
	"github.com/rxtech-lab/signal-tracker/pkg/errors"
	"go.uber.org/zap"
)

// BotAPI is the part of tgbotapi.BotAPI the notifier uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram posts closed signals to a chat.
type Telegram struct {
	bot    BotAPI
	chatID int64
	logger *logger.Logger
}

var _ Notifier = (*Telegram)(nil)

// NewTelegram authenticates the bot token against the Telegram API.
func NewTelegram(token string, chatID int64, log *logger.Logger) (*Telegram, error) {
	if token == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "telegram token is required")
	}

	if chatID == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "telegram chat id is required")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNotificationFailed, "failed to authenticate telegram bot", err)
	}

	log.Info("Telegram bot authorized", zap.String("username", bot.Self.UserName))

	return NewTelegramWithAPI(bot, chatID, log), nil
}

// NewTelegramWithAPI uses an existing bot, for tests.
func NewTelegramWithAPI(bot BotAPI, chatID int64, log *logger.Logger) *Telegram {
	return &Telegram{
		bot:    bot,
		chatID: chatID,
		logger: log.Named("telegram"),
	}
}

// SignalClosed sends one message per closed signal.
func (t *Telegram) SignalClosed(ctx context.Context, sig types.Signal, outcome types.Outcome) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeNotificationFailed, "notification cancelled", err)
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatClosed(sig, outcome))
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		return errors.Wrapf(errors.ErrCodeNotificationFailed, err, "failed to notify signal %d", sig.ID)
	}

	t.logger.Debug("Sent notification", zap.Int64("signal_id", sig.ID), zap.Int64("chat_id", t.chatID))

	return nil
}
