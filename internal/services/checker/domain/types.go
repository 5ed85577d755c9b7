package domain

// Result summarizes one poller run
type Result struct {
	// Skipped is set when another run held the check lock
	Skipped  bool
	FirstRun bool
	Events   int
	Cursor   int64
	Handoff  HandoffResult
}

// Handoff reasons
const (
	ReasonQueued      = "queued"
	ReasonUnconfirmed = "unconfirmed"
	ReasonNotDue      = "not_due"
	ReasonEmpty       = "empty"
	ReasonConflict    = "conflict"
)

// HandoffResult reports what the handoff decided
type HandoffResult struct {
	Queued bool
	Reason string
	// Key is the processing buffer handed to the builder
	Key   string
	JobID string
}

// Promotion is the outcome of the pending to processing rename
type Promotion int

const (
	Promoted Promotion = iota
	// NothingPending means the pending buffer did not exist
	NothingPending
	// ProcessingExists means an earlier processing buffer was never cleared
	ProcessingExists
)
