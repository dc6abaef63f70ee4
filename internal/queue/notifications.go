package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/mailer"

	"go.uber.org/zap"
)

// Event is the wire envelope of an outbox event.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	CreatedAt time.Time      `json:"createdAt"`
}

func EventFromOutbox(evt domain.OutboxEvent) Event {
	return Event{ID: evt.ID, Type: evt.Type, Payload: evt.Payload, CreatedAt: evt.CreatedAt}
}

// Notifier turns domain events into transactional email.
type Notifier struct {
	Mailer mailer.Sender
	Logger *zap.Logger
}

func NewNotifier(m mailer.Sender, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{Mailer: m, Logger: logger}
}

// Process handles one delivery. Returning an error asks for a retry, so
// malformed or unmailable events are logged and acknowledged instead.
func (n *Notifier) Process(ctx context.Context, body []byte) error {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		n.Logger.Warn("dropping malformed event", zap.Error(err))
		return nil
	}
	if strings.TrimSpace(evt.Type) == "" {
		return nil
	}

	switch evt.Type {
	case domain.EventBookingCreated:
		return n.bookingConfirmation(ctx, evt)
	default:
		n.Logger.Debug("event ignored", zap.String("type", evt.Type), zap.String("eventId", evt.ID))
		return nil
	}
}

func (n *Notifier) bookingConfirmation(ctx context.Context, evt Event) error {
	to := strings.TrimSpace(payloadString(evt.Payload, "guestEmail"))
	if to == "" {
		return nil
	}
	if n.Mailer == nil {
		n.Logger.Warn("booking confirmation skipped: no mailer", zap.String("eventId", evt.ID))
		return nil
	}

	property := payloadString(evt.Payload, "propertyName")
	_, err := n.Mailer.Send(ctx, mailer.Message{
		To:       to,
		Subject:  fmt.Sprintf("Your booking at %s", property),
		Template: domain.TemplateBookingConfirmation,
		Data:     evt.Payload,
	})
	if err != nil {
		if domain.IsCode(err, domain.ErrValidation) {
			n.Logger.Warn("booking confirmation not deliverable", zap.String("eventId", evt.ID), zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

func payloadString(payload map[string]any, key string) string {
	if payload == nil {
		return ""
	}
	v, _ := payload[key].(string)
	return v
}
