package messaging

import (
	"context"
	"time"

	"github.com/oksasatya/go-user-admin/internal/domain/event"
)

const publishTimeout = 3 * time.Second

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, msgType string, body any) error
}

// UserEventPublisher puts user lifecycle events on a queue, typed by event name.
type UserEventPublisher struct {
	pub JSONPublisher
}

func NewUserEventPublisher(pub JSONPublisher) *UserEventPublisher {
	return &UserEventPublisher{pub: pub}
}

func (p *UserEventPublisher) Publish(ctx context.Context, ev event.UserEvent) error {
	c, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return p.pub.PublishJSON(c, string(ev.Type), ev)
}
