package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
)

type EmailConfig struct {
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Username string   `json:"username"`
	Password string   `json:"password"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

type Email struct {
	cfg EmailConfig
}

func NewEmail(cfg EmailConfig) Email {
	return Email{cfg: cfg}
}

func (e Email) Send(ctx context.Context, n Notification) error {
	msg := email.NewEmail()
	msg.From = e.cfg.From
	msg.To = e.cfg.To
	msg.Subject = fmt.Sprintf("%s: %s", n.Status, n.Title)
	msg.Text = []byte(fmt.Sprintf(
		"%s\n\nStatus: %s\nPreis: %s\nShop: %s\n%s\n",
		n.Title, n.Status, n.Price, n.Site, n.Url,
	))

	err := msg.Send(
		fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port),
		smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host),
	)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
