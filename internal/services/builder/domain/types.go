// Package domain defines the public ports for the digest builder
package domain

import "context"

// Outcome reports what Build did with a processing buffer
type Outcome struct {
	// Empty means no renderable line was left; the buffer was dropped
	Empty bool
	// Skipped means the recipient cannot receive mail right now; the buffer was dropped
	Skipped bool
	Reason  string
	Lines   int
	Queued  bool
	JobID   string
}

// Build reasons
const (
	ReasonEmpty       = "empty"
	ReasonMissing     = "missing_recipient"
	ReasonUnconfirmed = "unconfirmed"
	ReasonOptedOut    = "opted_out"
	ReasonQueued      = "queued"
)

// Delivery request defaults
const (
	TemplateDigest  = "notification"
	ContentTypeHTML = "html"
)

// BuilderPort turns a processing buffer into a delivery request
type BuilderPort interface {
	Build(ctx context.Context, processingKey string) (Outcome, error)
}
