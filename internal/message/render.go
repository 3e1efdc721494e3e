// Package message renders human-readable payment and confirmation text
// from precomputed templates. It holds no state beyond the template set.
package message

import (
	"errors"
	"fmt"
	"strings"
	"text/template"
)

// ErrTemplateNotFound is returned when no template matches the requested
// (key, channel) pair.
var ErrTemplateNotFound = errors.New("template not found")

// Channel selects the delivery medium a template is written for.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Template keys understood by the ticket lifecycle engine.
const (
	KeyPaymentRequest      = "payment_request"
	KeyPaymentConfirmation = "payment_confirmation"
)

// Message is rendered output. Subject is empty for channels without one.
type Message struct {
	Subject string
	Body    string
}

type templateKey struct {
	key     string
	channel Channel
}

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

// Renderer substitutes named placeholders into a fixed template set.
type Renderer struct {
	templates map[templateKey]messageTemplate
}

// NewRenderer builds a renderer with the built-in template set.
func NewRenderer() *Renderer {
	r := &Renderer{templates: make(map[templateKey]messageTemplate)}
	r.add(KeyPaymentRequest, ChannelEmail,
		"Payment requested for {{.EventName}}",
		"Hi {{.Name}},\n\n"+
			"Your ticket for {{.EventName}} is ready. Please pay {{.Amount}} "+
			"using reference {{.Reference}} by {{.Deadline}}.\n"+
			"{{.Notes}}")
	r.add(KeyPaymentRequest, ChannelSMS,
		"",
		"{{.EventName}}: pay {{.Amount}} ref {{.Reference}} by {{.Deadline}}. {{.Notes}}")
	r.add(KeyPaymentConfirmation, ChannelEmail,
		"Payment received for {{.EventName}}",
		"Hi {{.Name}},\n\n"+
			"We received your payment for {{.EventName}}. See you there!\n"+
			"{{.Notes}}")
	return r
}

func (r *Renderer) add(key string, channel Channel, subject, body string) {
	mt := messageTemplate{
		body: template.Must(template.New(key + ":body").Option("missingkey=zero").Parse(body)),
	}
	if subject != "" {
		mt.subject = template.Must(template.New(key + ":subject").Option("missingkey=zero").Parse(subject))
	}
	r.templates[templateKey{key: key, channel: channel}] = mt
}

// Render substitutes data into the template for (key, channel). Missing
// placeholders, notes included, expand to an empty string rather than a
// dangling label.
func (r *Renderer) Render(key string, channel Channel, data map[string]string) (Message, error) {
	mt, ok := r.templates[templateKey{key: key, channel: channel}]
	if !ok {
		return Message{}, fmt.Errorf("%w: key %q channel %q", ErrTemplateNotFound, key, channel)
	}

	var msg Message
	var err error
	if mt.subject != nil {
		if msg.Subject, err = execute(mt.subject, data); err != nil {
			return Message{}, err
		}
	}
	if msg.Body, err = execute(mt.body, data); err != nil {
		return Message{}, err
	}
	msg.Body = strings.TrimRight(msg.Body, " \n") + "\n"
	return msg, nil
}

func execute(t *template.Template, data map[string]string) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", t.Name(), err)
	}
	return sb.String(), nil
}
