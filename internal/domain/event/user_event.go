package event

import "time"

// Type names a user lifecycle event. It doubles as the AMQP message type.
type Type string

const (
	UserCreated     Type = "user.created"
	UserUpdated     Type = "user.updated"
	UserDeactivated Type = "user.deactivated"
)

// UserEvent is published after a unit of work commits.
type UserEvent struct {
	Type       Type      `json:"type"`
	UserID     int64     `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Active     bool      `json:"active"`
	OccurredAt time.Time `json:"occurred_at"`
}
