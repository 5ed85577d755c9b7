// Package digest turns buffered events into the lines, headers and texts of one email
package digest

import (
	"fmt"
	"html"
	"strings"
	"time"

	"ghdigest/internal/core/event"
)

const profileBase = "https://github.com/"

// Line is one rendered notification. Day is set on the first line of each calendar day
// when grouping is on
type Line struct {
	HTML      string `json:"html"`
	Timestamp int64  `json:"timestamp"`
	Day       string `json:"day,omitempty"`
}

// Render produces the line for e; unknown types yield ok=false
func Render(e event.Event, now time.Time) (Line, bool) {
	v := e.View()
	var s string
	switch e.Type {
	case event.Star:
		s = link(v.Actor.Login, v.Actor.Login) + " starred " + link(v.Repo.Name, shortName(v.Repo.Name))
	case event.Fork:
		s = link(v.Actor.Login, v.Actor.Login) + " forked " + link(v.Repo.Name, shortName(v.Repo.Name)) +
			" to " + link(v.Payload.Forkee.FullName, v.Payload.Forkee.FullName)
	case event.Follow:
		s = link(v.Login, v.Login) + " started following you"
	case event.Unfollow:
		s = link(v.Login, v.Login) + " is not following you anymore"
	case event.Deleted:
		s = html.EscapeString(e.Login()) + " that was following you has been deleted"
	default:
		return Line{}, false
	}
	return Line{HTML: s, Timestamp: e.At(now).Unix()}, true
}

func link(path, text string) string {
	return fmt.Sprintf(`<a href="%s%s">%s</a>`, profileBase, html.EscapeString(path), html.EscapeString(text))
}

// shortName drops the owner part of owner/name
func shortName(full string) string {
	if i := strings.IndexByte(full, '/'); i >= 0 {
		return full[i+1:]
	}
	return full
}

// InjectDays sets Day on every line whose local day of month differs from the line before it.
// Comparison is consecutive, so reordered input yields extra headers rather than an error
func InjectDays(lines []Line, loc *time.Location) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	prev := -1
	for i := range out {
		t := time.Unix(out[i].Timestamp, 0).In(loc)
		if prev == -1 || t.Day() != prev {
			out[i].Day = t.Format("Monday, Jan _2")
		}
		prev = t.Day()
	}
	return out
}
