package mailer

import mailtpl "github.com/oksasatya/go-user-admin/pkg/mailer/templates"

// EmailJob describes one message for the worker to send. When Template is
// set, Subject, Text and HTML are rendered from it with Data.
type EmailJob struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject,omitempty"`
	Text     string            `json:"text,omitempty"`
	HTML     string            `json:"html,omitempty"`
	Template string            `json:"template,omitempty"` // "welcome" or "deactivated"
	Data     mailtpl.EmailData `json:"data"`
}

// Render fills Subject, Text and HTML from Template. Jobs without a template are left as is.
func (j *EmailJob) Render() error {
	if j.Template == "" {
		return nil
	}
	s, t, h, err := mailtpl.Render(j.Template, j.Data)
	if err != nil {
		return err
	}
	j.Subject, j.Text, j.HTML = s, t, h
	return nil
}
