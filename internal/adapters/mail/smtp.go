package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/retry"

	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/logger"
)

// errAuth is never retried
var errAuth = errors.New("smtp authentication failed")

// SMTP delivers through a relay with optional STARTTLS and PLAIN auth
type SMTP struct {
	cfg      Config
	log      logger.Logger
	attempts uint
	delay    time.Duration
}

// NewSMTP builds an SMTP provider
func NewSMTP(cfg Config) *SMTP {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Port == 0 {
		cfg.Port = 25
	}
	return &SMTP{cfg: cfg, log: *logger.Named("mail.smtp"), attempts: 3, delay: time.Second}
}

// Send implements Provider
func (s *SMTP) Send(ctx context.Context, m Message) error {
	if m.From == "" {
		m.From = s.cfg.From
	}
	raw := buildMIME(m)

	err := retry.Do(
		func() error { return s.deliver(ctx, m.From, m.To, raw) },
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool { return !errors.Is(err, errAuth) }),
		retry.OnRetry(func(n uint, err error) {
			s.log.Info().Uint("attempt", n).Err(err).Msg("retrying smtp send after error")
		}),
	)
	if errors.Is(err, errAuth) {
		return perr.Wrap(err, perr.ErrorCodeConfig, "smtp send failed")
	}
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "smtp send failed")
	}
	return nil
}

func (s *SMTP) deliver(ctx context.Context, from, to, msg string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect to smtp server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if s.cfg.StartTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
				return fmt.Errorf("start tls: %w", err)
			}
		}
	}
	if s.cfg.User != "" && s.cfg.Password != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("%w: %w", errAuth, err)
		}
	}
	if err := client.Mail(envelope(from)); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(envelope(to)); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("start message: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	// message is accepted once DATA closes
	_ = client.Quit()
	return nil
}

// envelope strips a display name; unparsable input is passed through
func envelope(addr string) string {
	if a, err := netmail.ParseAddress(addr); err == nil {
		return a.Address
	}
	return addr
}
