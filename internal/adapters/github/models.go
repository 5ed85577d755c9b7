package github

import (
	"strconv"

	json "github.com/goccy/go-json"
)

// Event is a partial received-events document. Raw keeps the whole
// upstream object so it can be buffered verbatim
type Event struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Actor struct {
		Login string `json:"login"`
	} `json:"actor"`
	Repo struct {
		Name string `json:"name"`
	} `json:"repo"`
	Raw json.RawMessage `json:"-"`
}

// Seq is the numeric event id; 0 when unparsable
func (e Event) Seq() int64 {
	n, _ := strconv.ParseInt(e.ID, 10, 64)
	return n
}

// User is a partial GitHub user document
type User struct {
	ID    int64           `json:"id"`
	Login string          `json:"login"`
	Raw   json.RawMessage `json:"-"`
}
