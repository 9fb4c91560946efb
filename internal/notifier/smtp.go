package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rdesitter/gym-tracker/internal/config"
	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/wneessen/go-mail"
)

// SMTPSender renders messages and delivers them over SMTP. A new client is dialed per message so
// concurrent sends never share a connection.
type SMTPSender struct {
	renderer    *Renderer
	host        string
	port        int
	username    string
	password    string
	fromName    string
	dialTimeout time.Duration
	attempts    uint
	retryDelay  time.Duration
	configured  bool
}

func NewSMTPSender(cfg *config.Config, renderer *Renderer) *SMTPSender {
	smtp := cfg.Email.SMTP
	attempts := cfg.Email.SendAttempts
	if attempts == 0 {
		attempts = 1
	}

	return &SMTPSender{
		renderer:    renderer,
		host:        smtp.Host,
		port:        smtp.Port,
		username:    smtp.Username,
		password:    smtp.Password,
		fromName:    cfg.Email.FromName,
		dialTimeout: time.Duration(smtp.DialTimeout) * time.Second,
		attempts:    attempts,
		retryDelay:  time.Second,
		configured:  cfg.SMTPConfigured(),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg domain.MailMessage) error {
	if !s.configured {
		return domain.ErrMailUnconfigured
	}

	rendered, err := s.renderer.Render(msg)
	if err != nil {
		return err
	}

	m, err := s.buildMsg(rendered)
	if err != nil {
		return err
	}

	err = retry.Do(
		func() error {
			client, err := s.newClient()
			if err != nil {
				return retry.Unrecoverable(err)
			}
			return client.DialAndSendWithContext(ctx, m)
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("smtp delivery failed, retrying", slog.String("to", msg.To), slog.Uint64("attempt", uint64(n+1)), slog.String("error", err.Error()))
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	return nil
}

func (s *SMTPSender) buildMsg(r *Rendered) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(s.fromName, s.username); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(r.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", r.To, err)
	}
	m.Subject(r.Subject)
	m.SetBodyString(mail.TypeTextPlain, r.Text)
	m.AddAlternativeString(mail.TypeTextHTML, r.HTML)
	return m, nil
}

// newClient uses implicit TLS on port 465 and STARTTLS when offered otherwise.
func (s *SMTPSender) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
	}
	if s.dialTimeout > 0 {
		opts = append(opts, mail.WithTimeout(s.dialTimeout))
	}
	if s.port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	return mail.NewClient(s.host, opts...)
}
