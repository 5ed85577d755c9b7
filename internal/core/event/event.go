// Package event defines normalized activity events and their identity
package event

import (
	"bytes"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	perr "ghdigest/internal/platform/errors"
)

// Type is the normalized kind of an event; fixed at normalization
type Type string

const (
	Star     Type = "star"
	Fork     Type = "fork"
	Follow   Type = "follow"
	Unfollow Type = "unfollow"
	Deleted  Type = "deleted"
)

// Types lists every known type
var Types = []Type{Star, Fork, Follow, Unfollow, Deleted}

// Valid reports whether t is a known type
func (t Type) Valid() bool {
	switch t {
	case Star, Fork, Follow, Unfollow, Deleted:
		return true
	}
	return false
}

// Event is one buffered notification. Entity is the raw upstream payload;
// for Deleted it is the bare login as a JSON string.
// Timestamp is nil for events observed during a baseline run
type Event struct {
	Type      Type            `json:"type"`
	Entity    json.RawMessage `json:"entity"`
	Timestamp *int64          `json:"timestamp"`
}

// New builds an Event from an already encoded entity
func New(t Type, entity json.RawMessage, ts *int64) Event {
	return Event{Type: t, Entity: entity, Timestamp: ts}
}

// NewDeleted builds a Deleted event for login
func NewDeleted(login string, ts *int64) Event {
	b, _ := json.Marshal(login)
	return Event{Type: Deleted, Entity: b, Timestamp: ts}
}

// Marshal encodes e for a buffer
func Marshal(e Event) (string, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeJSON, "encode event")
	}
	return string(b), nil
}

// Unmarshal decodes one buffer entry
func Unmarshal(s string) (Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return Event{}, perr.Wrap(err, perr.ErrorCodeJSON, "decode event")
	}
	return e, nil
}

// View is the subset of entity fields rendering and identity need
type View struct {
	ID    json.RawMessage `json:"id"`
	Login string          `json:"login"`
	Actor struct {
		Login string `json:"login"`
	} `json:"actor"`
	Repo struct {
		Name string `json:"name"`
	} `json:"repo"`
	Payload struct {
		Forkee struct {
			FullName  string `json:"full_name"`
			CreatedAt string `json:"created_at"`
		} `json:"forkee"`
	} `json:"payload"`
}

// View decodes the entity; a non-object entity yields a zero View
func (e Event) View() View {
	var v View
	if len(e.Entity) == 0 || e.Entity[0] != '{' {
		return v
	}
	_ = json.Unmarshal(e.Entity, &v)
	return v
}

// Login returns the bare login for Deleted events
func (e Event) Login() string {
	var s string
	if err := json.Unmarshal(e.Entity, &s); err == nil {
		return s
	}
	return e.View().Login
}

// SubjectID returns the entity id as text, false when there is none
func (e Event) SubjectID() (string, bool) {
	raw := bytes.TrimSpace(e.View().ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		s, err := strconv.Unquote(string(raw))
		if err != nil || s == "" {
			return "", false
		}
		return s, true
	}
	return string(raw), true
}

// At returns the observation time, or fallback when the timestamp was withheld
func (e Event) At(fallback time.Time) time.Time {
	if e.Timestamp == nil {
		return fallback
	}
	return time.Unix(*e.Timestamp, 0)
}

// DayBucket is epoch seconds of UTC midnight for t
func DayBucket(t time.Time) int64 {
	u := t.Unix()
	return u - u%86400
}

// Identity is the coalescing key of e: {id}_{type}_{day} when the entity has an id,
// else {entity}_{day}. The day comes from the event's own timestamp and falls back to now
func Identity(e Event, now time.Time) string {
	day := strconv.FormatInt(DayBucket(e.At(now)), 10)
	if id, ok := e.SubjectID(); ok {
		return id + "_" + string(e.Type) + "_" + day
	}
	var raw string
	if err := json.Unmarshal(e.Entity, &raw); err != nil {
		raw = string(compact(e.Entity))
	}
	return raw + "_" + day
}

// Identities maps Identity over events in order
func Identities(events []Event, now time.Time) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, Identity(e, now))
	}
	return out
}

// CanonicalKey is the sorted-set member for an ordered identity list
func CanonicalKey(ids []string) string {
	if ids == nil {
		ids = []string{}
	}
	b, _ := json.Marshal(ids)
	return string(b)
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}

// ObservedAt picks the timestamp a fresh event carries: a fork's creation time
// when the payload has a parsable one, otherwise now
func ObservedAt(t Type, v View, now time.Time) int64 {
	if t == Fork && v.Payload.Forkee.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, v.Payload.Forkee.CreatedAt); err == nil {
			return ts.Unix()
		}
	}
	return now.Unix()
}
