// Package notify holds the transports that deliver stock events to the
// operator. the core never retries sends itself; a failed send simply
// leaves the event unmarked so the next cycle re-detects it.
package notify

import (
	"context"
	"errors"
	"log/slog"
)

type Notification struct {
	Title  string
	Price  string
	Status string
	Url    string
	Site   string
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Slog just logs notifications, useful in development and tests
type Slog struct{}

func (Slog) Send(ctx context.Context, n Notification) error {
	slog.InfoContext(
		ctx, "notification",
		"site", n.Site,
		"title", n.Title,
		"status", n.Status,
		"price", n.Price,
		"url", n.Url,
	)
	return nil
}

// Multi fans a notification out to several transports. the event only
// counts as dispatched when every transport accepted it.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, n Notification) error {
	var errlist []error
	for _, notifier := range m {
		err := notifier.Send(ctx, n)
		if err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}
