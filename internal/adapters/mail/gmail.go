package mail

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	perr "ghdigest/internal/platform/errors"
	"ghdigest/internal/platform/logger"
)

// Gmail sends through the Gmail API as the authenticated account
type Gmail struct {
	service  *gmail.Service
	from     string
	log      logger.Logger
	attempts uint
	delay    time.Duration
}

// NewGmail wraps an existing service
func NewGmail(service *gmail.Service, from string) *Gmail {
	return &Gmail{service: service, from: from, log: *logger.Named("mail.gmail"), attempts: 3, delay: time.Second}
}

// NewGmailFromCredentials builds the service from credentials JSON, or ambient credentials when empty
func NewGmailFromCredentials(ctx context.Context, credsJSON, from string, opts ...option.ClientOption) (*Gmail, error) {
	if credsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credsJSON)))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "gmail service")
	}
	return NewGmail(svc, from), nil
}

// Send implements Provider
func (g *Gmail) Send(ctx context.Context, m Message) error {
	if m.From == "" {
		m.From = g.from
	}
	encoded := base64.URLEncoding.EncodeToString([]byte(buildMIME(m)))

	err := retry.Do(
		func() error {
			start := time.Now()
			_, err := g.service.Users.Messages.Send("me", &gmail.Message{Raw: encoded}).Context(ctx).Do()
			if err != nil {
				g.log.Warn().Dur("duration", time.Since(start)).Err(err).Msg("gmail api send failed")
				return err
			}
			g.log.Debug().Dur("duration", time.Since(start)).Msg("gmail api request completed")
			return nil
		},
		retry.Attempts(g.attempts),
		retry.Delay(g.delay),
		retry.MaxDelay(2*time.Minute),
		retry.MaxJitter(10*time.Second),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			g.log.Info().Uint("attempt", n).Err(err).Msg("retrying gmail send after error")
		}),
	)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "gmail send failed")
	}
	return nil
}
