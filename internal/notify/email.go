package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"github.com/folio-labs/portfolio-api/internal/contact"
	"gopkg.in/gomail.v2"
)

// EmailConfig describes the outbound relay. Host, user and password must all
// be set for the sink to be enabled.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

func (c EmailConfig) Enabled() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// Sender is the part of *gomail.Dialer the notifier uses.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailNotifier mails the site owner about each submission.
type EmailNotifier struct {
	cfg    EmailConfig
	sender Sender
}

func NewEmailNotifier(cfg EmailConfig) *EmailNotifier {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.To == "" {
		cfg.To = cfg.From
	}
	return &EmailNotifier{cfg: cfg, sender: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)}
}

// NewEmailNotifierWithSender is used by tests to replace the SMTP dialer.
func NewEmailNotifierWithSender(cfg EmailConfig, s Sender) *EmailNotifier {
	n := NewEmailNotifier(cfg)
	n.sender = s
	return n
}

func (n *EmailNotifier) Name() string { return "email" }

func (n *EmailNotifier) Notify(ctx context.Context, s contact.Submission) error {
	body, err := renderEmail(s)
	if err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", n.cfg.To)
	m.SetHeader("Reply-To", s.Email)
	m.SetHeader("Subject", "New Contact Form Submission from "+s.Name)
	m.SetBody("text/html", body)

	// gomail has no context support; abandon the wait when ctx expires
	errc := make(chan error, 1)
	go func() { errc <- n.sender.DialAndSend(m) }()
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("send mail via %s:%d: %w", n.cfg.Host, n.cfg.Port, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var emailTemplate = template.Must(template.New("contact").Parse(`<h3>New Contact Form Submission</h3>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Message:</strong></p>
<p>{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
<hr>
<p><small>Submitted at: {{.SubmittedAt}}</small></p>
<p><small>IP Address: {{.IPAddress}}</small></p>
`))

func renderEmail(s contact.Submission) (string, error) {
	data := struct {
		Name, Email, IPAddress, SubmittedAt string
		Lines                               []string
	}{
		Name:        s.Name,
		Email:       s.Email,
		IPAddress:   s.IPAddress,
		SubmittedAt: s.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"),
		Lines:       strings.Split(strings.ReplaceAll(s.Message, "\r\n", "\n"), "\n"),
	}
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render email: %w", err)
	}
	return buf.String(), nil
}
