package notify

import (
	"context"
	"fmt"
	"time"

	"cardwatch-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

type TelegramConfig struct {
	BotToken string `json:"bot_token"`
	ChatId   string `json:"chat_id"`
}

type Telegram struct {
	client *resty.Client
	api    string
	cfg    TelegramConfig
}

func NewTelegram(cfg TelegramConfig) Telegram {
	client := resty.New()
	client.SetTimeout(time.Second * 15)
	telemetry.InstrumentResty(client, "notify/telegram")

	return Telegram{
		client: client,
		api:    "https://api.telegram.org",
		cfg:    cfg,
	}
}

func (t Telegram) Send(ctx context.Context, n Notification) error {
	text := fmt.Sprintf(
		"🎯 *%s*\n💶 %s\n📊 %s\n🔗 [Zum Produkt](%s)",
		n.Title, n.Price, n.Status, n.Url,
	)
	if n.Price == "" {
		text = fmt.Sprintf(
			"🎯 *%s*\n📊 %s\n🔗 [Zum Produkt](%s)",
			n.Title, n.Status, n.Url,
		)
	}

	res, err := t.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id":    t.cfg.ChatId,
			"text":       text,
			"parse_mode": "Markdown",
		}).
		Post(fmt.Sprintf("%s/bot%s/sendMessage", t.api, t.cfg.BotToken))
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	if res.StatusCode() != 200 {
		return fmt.Errorf("send telegram message: status %d", res.StatusCode())
	}
	return nil
}
