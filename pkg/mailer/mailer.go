package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/shiksha-labs/prashnagen/pkg/config"
	"github.com/shiksha-labs/prashnagen/pkg/logger"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// Message is a single outbound email.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns a SendGrid mailer when an API key is configured, otherwise a log-only mailer.
func New(cfg config.SendgridConfig, logg *logger.Logger) Mailer {
	if cfg.Enabled() {
		return NewSendgridMailer(cfg, "")
	}
	return &LogMailer{logg: logg}
}

// SendgridMailer posts messages to the SendGrid v3 mail API.
type SendgridMailer struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

// NewSendgridMailer builds a SendGrid mailer; an empty host targets the public API.
func NewSendgridMailer(cfg config.SendgridConfig, host string) *SendgridMailer {
	if host == "" {
		host = sendgridHost
	}
	return &SendgridMailer{
		key:        cfg.APIKey,
		host:       host,
		from:       sgmail.NewEmail(cfg.AppName, cfg.DefaultFrom),
		subjPrefix: "[" + cfg.AppName + "] ",
	}
}

func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	req := sendgrid.GetRequest(m.key, sendgridEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid send: status %d: %s", res.StatusCode, strings.TrimSpace(res.Body))
	}
	return nil
}

func (m *SendgridMailer) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	out := sgmail.NewV3Mail()
	out.SetFrom(m.from)
	out.AddPersonalizations(p)
	out.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		out.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return out
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	logg *logger.Logger
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if m.logg != nil {
		ctx = m.logg.WithFields(ctx, map[string]any{
			"mail_to":      msg.ToEmail,
			"mail_subject": msg.Subject,
		})
		m.logg.Info(ctx, "mail delivery skipped; sendgrid not configured")
	}
	return nil
}

func (msg Message) validate() error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return errors.New("mail recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return errors.New("mail subject is required")
	}
	return nil
}
