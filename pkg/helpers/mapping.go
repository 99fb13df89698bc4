package helpers

import (
	"github.com/oksasatya/go-user-admin/config"
	"github.com/oksasatya/go-user-admin/internal/domain/event"
	"github.com/oksasatya/go-user-admin/pkg/mailer"
	mailtpl "github.com/oksasatya/go-user-admin/pkg/mailer/templates"
)

var templateForEvent = map[event.Type]string{
	event.UserCreated:     mailtpl.Welcome,
	event.UserDeactivated: mailtpl.Deactivated,
}

// EmailJobForEvent maps a lifecycle event onto the email the user receives.
// It reports false for events that do not notify anyone.
func EmailJobForEvent(ev event.UserEvent, cfg *config.Config) (mailer.EmailJob, bool) {
	name, ok := templateForEvent[ev.Type]
	if !ok || ev.Email == "" {
		return mailer.EmailJob{}, false
	}
	return mailer.EmailJob{
		To:       ev.Email,
		Template: name,
		Data:     mailtpl.NewBaseEmailData(cfg, name, ev.Name, ev.Email, mailtpl.WithTime(ev.OccurredAt)),
	}, true
}
