// Package mail renders digest templates and hands messages to a pluggable transport
package mail

import (
	"context"
	"strings"
	"time"

	perr "ghdigest/internal/platform/errors"
)

// Methods accepted for Config.Method
const (
	MethodSMTP     = "smtp"
	MethodGmail    = "gmail"
	MethodDisabled = "disabled"
)

// Message is one outgoing email. HTML may be empty for text-only mail
type Message struct {
	From        string
	To          string
	Subject     string
	HTML        string
	Text        string
	Unsubscribe string
}

// Provider sends a message or fails; implementations retry transport errors themselves
type Provider interface {
	Send(ctx context.Context, m Message) error
}

// Config selects and configures a Provider
type Config struct {
	Enabled  bool
	Method   string
	From     string
	Host     string
	Port     int
	User     string
	Password string
	StartTLS bool
	Timeout  time.Duration

	// Service account or OAuth client JSON; empty uses application default credentials
	GmailCredentials string
}

// New builds the configured Provider. A disabled config yields Disabled
func New(ctx context.Context, cfg Config) (Provider, error) {
	if !cfg.Enabled {
		return Disabled{}, nil
	}
	switch strings.ToLower(cfg.Method) {
	case MethodSMTP, "":
		if cfg.Host == "" {
			return nil, perr.Configf("mail: smtp host required")
		}
		return NewSMTP(cfg), nil
	case MethodGmail:
		return NewGmailFromCredentials(ctx, cfg.GmailCredentials, cfg.From)
	case MethodDisabled:
		return Disabled{}, nil
	}
	return nil, perr.Configf("mail: unknown method %q", cfg.Method)
}

// sanitizeHeader drops CR, LF and other control characters from a header value
func sanitizeHeader(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
