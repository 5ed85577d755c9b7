package mail

import (
	"fmt"
	"strings"
	"time"
)

var boundaryNow = time.Now

// buildMIME assembles an RFC 5322 message; both parts present means multipart/alternative
func buildMIME(m Message) string {
	var msg strings.Builder

	if m.From != "" {
		msg.WriteString(fmt.Sprintf("From: %s\r\n", sanitizeHeader(m.From)))
	}
	msg.WriteString(fmt.Sprintf("To: %s\r\n", sanitizeHeader(m.To)))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", sanitizeHeader(m.Subject)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	if m.Unsubscribe != "" {
		msg.WriteString(fmt.Sprintf("List-Unsubscribe: <%s>\r\n", sanitizeHeader(m.Unsubscribe)))
	}

	switch {
	case m.HTML != "" && m.Text != "":
		boundary := fmt.Sprintf("boundary_%d", boundaryNow().UnixNano())
		msg.WriteString(fmt.Sprintf("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary))

		msg.WriteString("--" + boundary + "\r\n")
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(m.Text)
		msg.WriteString("\r\n")

		msg.WriteString("--" + boundary + "\r\n")
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		msg.WriteString(m.HTML)
		msg.WriteString("\r\n")

		msg.WriteString("--" + boundary + "--\r\n")
	case m.HTML != "":
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
		msg.WriteString(m.HTML)
	default:
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		msg.WriteString(m.Text)
	}
	return msg.String()
}
