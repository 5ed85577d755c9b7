package digest

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"ghdigest/internal/core/recipient"
)

// Subject is the email subject for n lines
func Subject(n int, f recipient.Frequency, now time.Time, loc *time.Location) string {
	s := headline(n)
	switch f {
	case recipient.Daily:
		s = now.In(loc).Format("Jan _2") + " daily report: " + s
	case recipient.Weekly:
		s = now.In(loc).Format("Jan _2") + " weekly report: " + s
	}
	return s
}

// Summary is the intro paragraph, anchored on the first line's time
func Summary(lines []Line, loc *time.Location) string {
	if len(lines) == 0 {
		return ""
	}
	at := time.Unix(lines[0].Timestamp, 0).In(loc)
	when := at.Format("Monday Jan _2") + " at " + fmt.Sprintf("%2d:%02d", at.Hour(), at.Minute())
	if len(lines) == 1 {
		return headline(1) + "!<br />You notification was received on " + when + "."
	}
	return headline(len(lines)) + "!<br />Your last notification was received on " + when + "."
}

func headline(n int) string {
	if n == 1 {
		return "You have a new notification"
	}
	return fmt.Sprintf("You have %d new notifications", n)
}

// SiteURL is the link back to the product, tagged with the delivery frequency
func SiteURL(domain string, f recipient.Frequency) string {
	return "https://" + domain + "/?utm_source=notifications&utm_medium=email&utm_campaign=timeline&utm_content=" +
		url.QueryEscape(string(f))
}

// PlainText converts an HTML fragment to text: <br> becomes CRLF and tags are dropped
func PlainText(s string) string {
	for _, br := range []string{"<br />", "<br/>", "<br>"} {
		s = strings.ReplaceAll(s, br, "\r\n")
	}
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
		case r == '>' && in:
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return b.String()
}
