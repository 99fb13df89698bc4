package templates

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	"reflect"
	"strings"
	texttpl "text/template"
	"time"
)

// EmailData defines standard fields for email templates.
type EmailData struct {
	Name           string `json:"Name"`
	Email          string `json:"Email"`
	RecipientEmail string `json:"RecipientEmail"`
	Type           string `json:"Type"`

	CompanyName string `json:"CompanyName"`
	AppName     string `json:"AppName"`
	SupportURL  string `json:"SupportURL"`

	Time   string    `json:"Time"`
	TimeAt time.Time `json:"TimeAt"`
}

// defaultFn supports pipe usage: {{ .Value | default "Fallback" }}
func defaultFn(fallback any, value any) any {
	switch x := value.(type) {
	case string:
		if strings.TrimSpace(x) == "" {
			return fallback
		}
		return x
	case nil:
		return fallback
	default:
		rv := reflect.ValueOf(value)
		if !rv.IsValid() || rv.IsZero() {
			return fallback
		}
		return value
	}
}

func baseFuncs() map[string]any {
	return map[string]any{
		"formatTime": func(t time.Time, layout string) string { return t.Format(layout) },
		"upper":      strings.ToUpper,
		"default":    defaultFn,
	}
}

// ---- Template names ----

const (
	Welcome     = "welcome"
	Deactivated = "deactivated"
)

type emailTemplate struct {
	subject string
	text    string
	html    string
}

const footerText = `
--
{{ .CompanyName | default .AppName }}{{ if .SupportURL }}
Support: {{ .SupportURL }}{{ end }}
`

const footerHTML = `<hr><p style="color:#888;font-size:12px">{{ .CompanyName | default .AppName }}{{ if .SupportURL }} &middot; <a href="{{ .SupportURL }}">Support</a>{{ end }}</p>`

var registry = map[string]emailTemplate{
	Welcome: {
		subject: `Welcome to {{ .AppName | default "our service" }}, {{ .Name }}`,
		text: `Hi {{ .Name }},

Your account {{ .Email }} was created on {{ .Time }}.
` + footerText,
		html: `<p>Hi {{ .Name }},</p>
<p>Your account <strong>{{ .Email }}</strong> was created on {{ .Time }}.</p>
` + footerHTML,
	},
	Deactivated: {
		subject: `Your {{ .AppName | default "user" }} account was deactivated`,
		text: `Hi {{ .Name }},

The account {{ .Email }} was deactivated on {{ .Time }}. Contact support if this was not expected.
` + footerText,
		html: `<p>Hi {{ .Name }},</p>
<p>The account <strong>{{ .Email }}</strong> was deactivated on {{ .Time }}. Contact support if this was not expected.</p>
` + footerHTML,
	},
}

func renderText(name, src string, data any) (string, error) {
	tpl, err := texttpl.New(name).Funcs(texttpl.FuncMap(baseFuncs())).Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse text %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", name, err)
	}
	return buf.String(), nil
}

func renderHTML(name, src string, data any) (string, error) {
	tpl, err := htmpl.New(name).Funcs(htmpl.FuncMap(baseFuncs())).Parse(src)
	if err != nil {
		return "", fmt.Errorf("parse html %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", name, err)
	}
	return buf.String(), nil
}

// Render renders the subject, text and html bodies of the named template.
func Render(name string, data EmailData) (subject string, text string, html string, err error) {
	t, ok := registry[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	if subject, err = renderText(name+".subject", t.subject, data); err != nil {
		return "", "", "", err
	}
	if text, err = renderText(name+".text", t.text, data); err != nil {
		return "", "", "", err
	}
	if html, err = renderHTML(name+".html", t.html, data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}
