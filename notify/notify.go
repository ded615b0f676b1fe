// Package notify sends out-of-band alerts about the device.
package notify

import (
	"log/slog"
	"time"

	"github.com/gregdel/pushover"
)

type Notifier interface {
	Notify(title, message string)
}

// Nop is used when no notification service is configured.
type Nop struct{}

func (Nop) Notify(title, message string) {}

type Pushover struct {
	app       *pushover.Pushover
	recipient *pushover.Recipient
	send      func(*pushover.Message) error
}

func NewPushover(token, recipient string) *Pushover {
	p := &Pushover{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(recipient),
	}
	p.send = func(m *pushover.Message) error {
		_, err := p.app.SendMessage(m, p.recipient)
		return err
	}
	return p
}

// Notify sends in the background so a slow API never holds up a tick.
func (p *Pushover) Notify(title, message string) {
	m := &pushover.Message{
		Message:    message,
		Title:      title,
		Priority:   pushover.PriorityNormal,
		Timestamp:  time.Now().Unix(),
		DeviceName: "adbreak",
	}
	go func() {
		if err := p.send(m); err != nil {
			slog.Error("Failed to send notification",
				slog.String("error", err.Error()),
				slog.String("title", title))
		}
	}()
}
