// Package keys builds the Redis key layout shared by every stage
package keys

import "strings"

// Space is a namespaced key builder
type Space struct{ ns string }

// New returns a Space rooted at ns; an empty ns yields unprefixed keys
func New(ns string) Space { return Space{ns: strings.TrimSuffix(ns, ":")} }

// Namespace returns the configured prefix
func (s Space) Namespace() string { return s.ns }

func (s Space) join(parts ...string) string {
	if s.ns != "" {
		parts = append([]string{s.ns}, parts...)
	}
	return strings.Join(parts, ":")
}

// User is the recipient hash
func (s Space) User(id string) string { return s.join("users", id) }

// UserPattern matches every recipient hash for SCAN
func (s Space) UserPattern() string { return s.join("users", "*") }

// Pending is the live buffer the Poller appends to
func (s Space) Pending(id string) string { return s.join("events", "batch", id) }

// Processing is the buffer promoted by the handoff
func (s Space) Processing(id string) string { return s.join("processing", "events", "batch", id) }

// History is the unconditional full event log
func (s Space) History(id string) string { return s.join("events", id) }

// CheckLock is the Poller single-flight lease
func (s Space) CheckLock(id string) string { return s.join("locks", "notifications_checker", id) }

// EmailLock is the sorted set of delivered identity lists
func (s Space) EmailLock(id string) string { return s.join("locks", "email", id) }

// Queue is a job list
func (s Space) Queue(name string) string { return s.join("queue", name) }

// Inflight holds jobs a worker has claimed but not finished
func (s Space) Inflight(name string) string { return s.join("queue", name, "inflight") }

// Dead holds jobs that exhausted their attempts
func (s Space) Dead(name string) string { return s.join("queue", name, "dead") }

// IDOf returns the trailing segment of a per-recipient key
func IDOf(key string) string {
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		return key[i+1:]
	}
	return key
}
