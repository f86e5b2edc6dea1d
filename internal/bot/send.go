package bot

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

const sendAttempts = 3

// send delivers a message with bounded retry: transient transport
// failures back off exponentially for up to three attempts, while
// Telegram API rejections (bad request, blocked bot and the like) are
// surfaced immediately.
func (b *Bot) send(msg tgbotapi.Chattable) error {
	policy := backoff.WithMaxRetries(newSendBackoff(), sendAttempts-1)
	return backoff.Retry(func() error {
		_, err := b.api.Send(msg)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		logrus.WithError(err).Warn("send failed, retrying")
		return err
	}, policy)
}

func newSendBackoff() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	return policy
}

// retryable reports whether a send error looks transient. API errors
// carry a response code; anything in the 4xx range is a validation or
// authorization failure and retrying cannot help.
func retryable(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code < 400 || apiErr.Code >= 500
	}
	return true
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	return b.send(msg)
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	return b.send(msg)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	return b.send(msg)
}
