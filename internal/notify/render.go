package notify

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
	"time"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("").
		Funcs(template.FuncMap{
			"when": func(t time.Time) string { return t.UTC().Format("Monday, January 2, 2006 at 15:04 MST") },
		}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// Message is a rendered notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

func RenderConfirmation(c Confirmation) (Message, error) {
	body, err := render("confirmation.txt.tmpl", c)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      c.To,
		Subject: fmt.Sprintf("Your ticket for %s", c.Event.Name),
		Body:    body,
	}, nil
}

func RenderReminder(r Reminder) (Message, error) {
	body, err := render("reminder.txt.tmpl", r)
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      r.To,
		Subject: fmt.Sprintf("Reminder: %s starts soon", r.Event.Name),
		Body:    body,
	}, nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
