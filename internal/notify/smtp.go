package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// SMTPConfig configures an SMTPChannel.
type SMTPConfig struct {
	// Service names a preset host ("gmail"). Host and Port override it.
	Service  string
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

var smtpServices = map[string]struct {
	host string
	port int
}{
	"gmail":   {"smtp.gmail.com", 587},
	"outlook": {"smtp.office365.com", 587},
	"yahoo":   {"smtp.mail.yahoo.com", 587},
}

// sendFunc delivers a built message. The default dials the server with a
// go-mail client bounded by ctx.
type sendFunc func(ctx context.Context, m *mail.Msg) error

// SMTPChannel mails each message as HTML with a plain-text alternative.
type SMTPChannel struct {
	host string
	port int
	from string
	to   []string
	now  func() time.Time
	send sendFunc
}

// NewSMTPChannel validates cfg and creates the channel.
func NewSMTPChannel(cfg SMTPConfig) (*SMTPChannel, error) {
	host, port := cfg.Host, cfg.Port
	if preset, ok := smtpServices[strings.ToLower(cfg.Service)]; ok {
		if host == "" {
			host = preset.host
		}
		if port == 0 {
			port = preset.port
		}
	} else if cfg.Service != "" {
		return nil, fmt.Errorf("smtp: unknown service %q", cfg.Service)
	}
	if port == 0 {
		port = 587
	}

	switch {
	case host == "":
		return nil, errors.New("smtp: host or service is required")
	case cfg.From == "":
		return nil, errors.New("smtp: from is required")
	case len(cfg.To) == 0:
		return nil, errors.New("smtp: at least one recipient is required")
	}

	// Malformed addresses fail here, not on the first delivery.
	check := mail.NewMsg()
	if err := check.From(cfg.From); err != nil {
		return nil, fmt.Errorf("smtp: from: %w", err)
	}
	if err := check.To(cfg.To...); err != nil {
		return nil, fmt.Errorf("smtp: to: %w", err)
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	return &SMTPChannel{
		host: host,
		port: port,
		from: cfg.From,
		to:   cfg.To,
		now:  time.Now,
		send: func(ctx context.Context, m *mail.Msg) error {
			client, err := mail.NewClient(host, opts...)
			if err != nil {
				return err
			}
			return client.DialAndSendWithContext(ctx, m)
		},
	}, nil
}

// Name implements Channel.
func (c *SMTPChannel) Name() string { return "smtp" }

// Send implements Channel. The receipt id is the generated Message-ID.
func (c *SMTPChannel) Send(ctx context.Context, msg Message) (Receipt, error) {
	m, err := c.build(msg)
	if err != nil {
		return Receipt{}, err
	}
	if err := c.send(ctx, m); err != nil {
		return Receipt{}, fmt.Errorf("smtp send %s: %w", msg.Identity, err)
	}
	return Receipt{ID: m.GetMessageID()}, nil
}

// build assembles a multipart/alternative message.
func (c *SMTPChannel) build(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg(mail.WithNoDefaultUserAgent())
	if err := m.From(c.from); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := m.To(c.to...); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(c.now())
	m.SetMessageIDWithValue(uuid.NewString() + "@" + c.idDomain())
	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	return m, nil
}

func (c *SMTPChannel) idDomain() string {
	if at := strings.LastIndex(c.from, "@"); at >= 0 {
		return strings.Trim(c.from[at+1:], "> ")
	}
	return c.host
}
