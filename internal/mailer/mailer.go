package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"

	"gopkg.in/gomail.v2"
)

type Message struct {
	To       []string
	Subject  string
	TextBody string
	HTMLBody string
	ReplyTo  string
}

// Mailer delivers outbound notification email.
type Mailer interface {
	Send(msg *Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// New returns an SMTP mailer, or a logging mailer when no host is configured.
func New(cfg Config) Mailer {
	if cfg.Host == "" {
		return LogMailer{}
	}
	return NewSMTP(cfg)
}

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTP(cfg Config) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(msg *Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients specified")
	}
	return m.dialer.DialAndSend(buildMessage(m.from, msg))
}

func buildMessage(from string, msg *Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		gm.AddAlternative("text/html", msg.HTMLBody)
	}
	return gm
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(msg *Message) error {
	slog.Info("email not sent: SMTP not configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

type ContactData struct {
	Name    string
	Email   string
	Mobile  string
	Subject string
	Message string
}

var contactHTML = template.Must(template.New("contact").Parse(`<h2>New contact submission</h2>
<p><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;{{if .Mobile}} · {{.Mobile}}{{end}}</p>
{{if .Subject}}<p><strong>Subject:</strong> {{.Subject}}</p>{{end}}
<p style="white-space:pre-wrap">{{.Message}}</p>`))

// ContactNotification renders the admin notification for a contact submission.
func ContactNotification(to []string, d ContactData) (*Message, error) {
	var html bytes.Buffer
	if err := contactHTML.Execute(&html, d); err != nil {
		return nil, fmt.Errorf("render contact notification: %w", err)
	}

	subject := "New contact submission from " + d.Name
	if d.Subject != "" {
		subject += ": " + d.Subject
	}
	text := fmt.Sprintf("From: %s <%s> %s\nSubject: %s\n\n%s", d.Name, d.Email, d.Mobile, d.Subject, d.Message)

	return &Message{
		To:       to,
		Subject:  subject,
		TextBody: text,
		HTMLBody: html.String(),
		ReplyTo:  d.Email,
	}, nil
}
