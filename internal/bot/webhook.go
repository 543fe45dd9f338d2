package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Requester performs raw Bot API calls. *tgbotapi.BotAPI satisfies it.
type Requester interface {
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// RegisterWebhook points Telegram at url, dropping updates queued while the
// bot was down.
func RegisterWebhook(api Requester, url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	wh.DropPendingUpdates = true
	if _, err := api.Request(wh); err != nil {
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook removes the webhook, keeping pending updates.
func DeleteWebhook(api Requester) error {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: false}); err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}
