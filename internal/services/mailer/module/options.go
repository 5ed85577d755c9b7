package module

import (
	"time"

	"ghdigest/internal/adapters/mail"
	"ghdigest/internal/platform/config"
)

// Options controls the delivery guard
type Options struct {
	Audit bool
	Mail  mail.Config
}

// FromConfig reads MAILER_ and MAIL_ options
func FromConfig(cfg config.Conf) Options {
	return Options{
		Audit: cfg.Prefix("MAILER_").MayBool("AUDIT", true),
		Mail:  MailConfig(cfg),
	}
}

// MailConfig reads the transport settings using the MAIL_ prefix
func MailConfig(cfg config.Conf) mail.Config {
	m := cfg.Prefix("MAIL_")
	return mail.Config{
		Enabled:          m.MayBool("ENABLED", false),
		Method:           m.MayEnum("METHOD", mail.MethodSMTP, mail.MethodSMTP, mail.MethodGmail, mail.MethodDisabled),
		From:             m.MayString("FROM", "notifications@localhost"),
		Host:             m.MayString("HOST", ""),
		Port:             m.MayInt("PORT", 25),
		User:             m.MayString("USER", ""),
		Password:         m.MayString("PASSWORD", ""),
		StartTLS:         m.MayBool("STARTTLS", true),
		Timeout:          m.MayDuration("TIMEOUT", 30*time.Second),
		GmailCredentials: m.MayString("GMAIL_CREDENTIALS", ""),
	}
}
