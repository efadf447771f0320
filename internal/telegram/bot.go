// Package telegram connects the questionnaire to the Telegram Bot API.
package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"listing-site-backend/internal/session"
)

type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Dispatcher accepts inputs for asynchronous handling.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID int64, in session.Input)
}

// Bot long-polls for updates and delivers effects.
type Bot struct {
	updater     Updater
	sender      Sender
	pollTimeout int
	log         *zap.Logger
}

func NewBot(api *tgbotapi.BotAPI, pollTimeout int, log *zap.Logger) *Bot {
	return newBot(api, api, pollTimeout, log)
}

func newBot(updater Updater, sender Sender, pollTimeout int, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{updater: updater, sender: sender, pollTimeout: pollTimeout, log: log.Named("telegram")}
}

// Run feeds incoming messages to d until ctx is done or the update channel
// is closed.
func (b *Bot) Run(ctx context.Context, d Dispatcher) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	u.AllowedUpdates = []string{"message"}

	updates := b.updater.GetUpdatesChan(u)
	defer b.updater.StopReceivingUpdates()

	b.log.Info("Polling for updates")
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			userID, in, ok := ToInput(upd.Message)
			if !ok {
				continue
			}
			b.log.Debug("Update received", zap.Int64("user_id", userID), zap.Stringer("kind", in.Kind))
			d.Dispatch(ctx, userID, in)
		}
	}
}

// Deliver sends every reply of eff. Replies without a chat go to userID.
func (b *Bot) Deliver(_ context.Context, userID int64, eff session.Effect) {
	for _, r := range eff.Replies {
		chatID := r.ChatID
		if chatID == 0 {
			chatID = userID
		}
		if _, err := b.sender.Send(Render(chatID, r)); err != nil {
			b.log.Warn("Unable to deliver reply",
				zap.Int64("user_id", userID),
				zap.Int64("chat_id", chatID),
				zap.Bool("document", r.Document != nil),
				zap.Error(err))
		}
	}
}
