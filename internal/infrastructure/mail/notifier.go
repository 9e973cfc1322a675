package mail

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
)

const WelcomeSubject = "Welcome to Our Service!"

//go:embed templates/welcome.html
var welcomeHTML string

var welcomeTmpl = template.Must(template.New("welcome").Parse(welcomeHTML))

// RenderWelcome builds the welcome message for a newly registered user.
func RenderWelcome(to, name string) (Message, error) {
	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, struct{ Name string }{Name: name}); err != nil {
		return Message{}, fmt.Errorf("render welcome: %w", err)
	}
	return Message{
		To:      to,
		Subject: WelcomeSubject,
		Text:    fmt.Sprintf("Welcome, %s! Your TaskFlow account has been created.", name),
		HTML:    buf.String(),
	}, nil
}

// Notifier renders notifications and hands them to an Enqueuer, so callers
// never wait on delivery.
type Notifier struct {
	queue Enqueuer
}

func NewNotifier(queue Enqueuer) *Notifier {
	return &Notifier{queue: queue}
}

func (n *Notifier) Welcome(_ context.Context, to, name string) error {
	msg, err := RenderWelcome(to, name)
	if err != nil {
		return err
	}
	return n.queue.Enqueue(msg)
}
