// Package recipient models the per-user state hash and its wire encoding
package recipient

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"

	"ghdigest/internal/core/event"
	perr "ghdigest/internal/platform/errors"
)

// Frequency is the delivery cadence
type Frequency string

const (
	Immediate Frequency = "immediate"
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
)

// ParseFrequency accepts the legacy "asap" spelling; unknown values mean Immediate
func ParseFrequency(s string) Frequency {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily
	case "weekly":
		return Weekly
	default:
		return Immediate
	}
}

// Window is the minimum gap between handoffs for f
func (f Frequency) Window() time.Duration {
	switch f {
	case Daily:
		return 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	}
	return 0
}

// Hash field names
const (
	FieldLogin          = "login"
	FieldToken          = "token"
	FieldGitHubID       = "github_id"
	FieldEmail          = "email"
	FieldEmailConfirmed = "email_confirmed"
	FieldDisabledTypes  = "disabled_notifications_type"
	FieldFrequency      = "notifications_frequency"
	FieldLastEventID    = "last_event_id"
	FieldFollowers      = "followers"
	FieldLastQueued     = "last_email_queued_on"
	FieldLastSent       = "last_email_sent_on"
	FieldFirstCheck     = "first_check_completed"
	FieldUnsubscribed   = "unsubscribed"
)

// Recipient is the decoded user hash
type Recipient struct {
	Login          string `validate:"required"`
	Token          string `validate:"required"`
	GitHubID       string `validate:"required,numeric"`
	Email          string `validate:"omitempty,email"`
	EmailConfirmed bool
	DisabledTypes  []event.Type
	Frequency      Frequency
	LastEventID    int64
	// Followers is nil when no snapshot was ever stored
	Followers           []string
	LastQueued          time.Time
	LastSent            time.Time
	FirstCheckCompleted bool
	Unsubscribed        bool
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func v() *validator.Validate {
	validateOnce.Do(func() { validate = validator.New(validator.WithRequiredStructEnabled()) })
	return validate
}

// Decode builds a Recipient from HGETALL output; an empty hash is NotFound
func Decode(h map[string]string) (Recipient, error) {
	if len(h) == 0 {
		return Recipient{}, perr.ErrNotFound
	}
	r := Recipient{
		Login:               h[FieldLogin],
		Token:               h[FieldToken],
		GitHubID:            h[FieldGitHubID],
		Email:               strings.TrimSpace(h[FieldEmail]),
		EmailConfirmed:      h[FieldEmailConfirmed] != "0",
		Frequency:           ParseFrequency(h[FieldFrequency]),
		LastEventID:         atoi(h[FieldLastEventID]),
		LastQueued:          epoch(h[FieldLastQueued]),
		LastSent:            epoch(h[FieldLastSent]),
		FirstCheckCompleted: h[FieldFirstCheck] == "1",
		Unsubscribed:        h[FieldUnsubscribed] == "1",
		DisabledTypes:       parseTypes(h[FieldDisabledTypes]),
	}
	if raw, ok := h[FieldFollowers]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &r.Followers); err != nil {
			return Recipient{}, perr.WithField(perr.Wrap(err, perr.ErrorCodeJSON, "decode followers"), FieldFollowers)
		}
		if r.Followers == nil {
			r.Followers = []string{}
		}
	}
	if err := v().Struct(r); err != nil {
		field := ""
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			field = ve[0].Field()
		}
		return Recipient{}, perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "invalid recipient"), field)
	}
	return r, nil
}

// OptedOut reports whether pending buffering is off for r
func (r Recipient) OptedOut() bool { return r.Email == "" || r.Unsubscribed }

// Suppressed reports whether t is on r's disabled list
func (r Recipient) Suppressed(t event.Type) bool {
	for _, d := range r.DisabledTypes {
		if d == t {
			return true
		}
	}
	return false
}

// HasSnapshot reports whether a followers snapshot was stored before
func (r Recipient) HasSnapshot() bool { return r.Followers != nil }

// EncodeFollowers renders the snapshot field value
func EncodeFollowers(logins []string) string {
	if logins == nil {
		logins = []string{}
	}
	b, _ := json.Marshal(logins)
	return string(b)
}

// parseTypes accepts a JSON array or a comma list
func parseTypes(s string) []event.Type {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var raw []string
	if strings.HasPrefix(s, "[") {
		_ = json.Unmarshal([]byte(s), &raw)
	} else {
		raw = strings.Split(s, ",")
	}
	out := make([]event.Type, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, event.Type(t))
		}
	}
	return out
}

func atoi(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func epoch(s string) time.Time {
	n := atoi(s)
	if n <= 0 {
		return time.Time{}
	}
	return time.Unix(n, 0)
}
