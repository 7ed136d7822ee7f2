package amqp

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Publisher is the publishing half of Client.
type Publisher interface {
	PublishEvent(ctx context.Context, ev Event) error
}

// ResetNotifier hands password reset tokens to whatever delivers mail,
// by publishing an auth.password_reset event.
type ResetNotifier struct {
	Publisher Publisher
}

func (n ResetNotifier) NotifyPasswordReset(ctx context.Context, user core.User, token string, _ time.Time) error {
	ev := NewEvent(EventPasswordReset, user.ID, "")
	ev.Email = user.Email
	ev.Token = token
	return n.Publisher.PublishEvent(ctx, ev)
}
