// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Email is one outgoing message with text and HTML alternatives.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers an Email and returns the Message-ID it was sent with.
type Sender interface {
	Send(ctx context.Context, msg Email) (messageID string, err error)
}

// Config holds SMTP settings. An empty Host makes the Mailer log messages
// instead of sending them.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
	Timeout  time.Duration
}

// Mailer sends mail over SMTP.
type Mailer struct {
	cfg     Config
	log     *zap.Logger
	deliver func(ctx context.Context, msg *mail.Msg) error
	now     func() time.Time
}

var (
	errNoRecipient = errors.New("mailer: recipient is required")
	errEmptyBody   = errors.New("mailer: message body is empty")
)

func New(cfg Config, logger *zap.Logger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	m := &Mailer{cfg: cfg, log: logger, now: time.Now}
	m.deliver = m.dialAndSend
	return m
}

// Send implements Sender.
func (m *Mailer) Send(ctx context.Context, msg Email) (string, error) {
	if strings.TrimSpace(msg.To) == "" {
		return "", errNoRecipient
	}
	gm, err := m.compose(msg)
	if err != nil {
		return "", err
	}
	messageID := gm.GetMessageID()

	if m.cfg.Host == "" {
		m.log.Info("mail not sent (no smtp host configured)",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.String("message_id", messageID))
		return messageID, nil
	}

	if err := m.deliver(ctx, gm); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return messageID, nil
}

// compose builds msg as a go-mail message with a Message-ID in the
// sender's domain.
func (m *Mailer) compose(msg Email) (*mail.Msg, error) {
	if msg.TextBody == "" && msg.HTMLBody == "" {
		return nil, errEmptyBody
	}

	gm := mail.NewMsg()
	if m.cfg.FromName != "" {
		if err := gm.FromFormat(m.cfg.FromName, m.cfg.From); err != nil {
			return nil, fmt.Errorf("mailer: invalid from address: %w", err)
		}
	} else if err := gm.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("mailer: invalid from address: %w", err)
	}
	if err := gm.To(strings.TrimSpace(msg.To)); err != nil {
		return nil, fmt.Errorf("mailer: invalid recipient: %w", err)
	}
	gm.Subject(msg.Subject)

	domain := "localhost"
	if at := strings.LastIndex(m.cfg.From, "@"); at >= 0 {
		domain = m.cfg.From[at+1:]
	}
	gm.SetMessageIDWithValue(uuid.NewString() + "@" + domain)
	gm.SetDateWithValue(m.now())

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		gm.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		gm.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		gm.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	default:
		gm.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}
	return gm, nil
}

func (m *Mailer) dialAndSend(ctx context.Context, gm *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTimeout(m.cfg.Timeout),
	}
	if m.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.User),
			mail.WithPassword(m.cfg.Pass))
	}
	if m.cfg.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	c, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return c.DialAndSendWithContext(ctx, gm)
}
