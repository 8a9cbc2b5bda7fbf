// Package types provides type definitions for structured data used throughout the markup-checker system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"
)

// Status is the settled state of a single check in a report.
type Status string

const (
	// StatusPass means the check ran and found nothing.
	StatusPass Status = "pass"
	// StatusFail means the check reported one or more violations.
	StatusFail Status = "fail"
	// StatusUnverified means the check could not finish (timeout, unreachable probe).
	StatusUnverified Status = "unverified"
	// StatusError means the check itself failed unexpectedly.
	StatusError Status = "error"
)

// DefaultSeparator joins multiple messages into one display string.
const DefaultSeparator = "<br>"

// Entry is the resolved result of one check
type Entry struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Status   Status   `json:"status"`
	Messages []string `json:"messages,omitempty"`
	Display  string   `json:"display,omitempty"` // Messages joined with the report separator
	Error    string   `json:"error,omitempty"`   // Set only for StatusError / StatusUnverified
}

// Passed reports whether the entry carries no violation and no failure.
func (e Entry) Passed() bool {
	return e.Status == StatusPass
}

// Report is the ordered outcome of one validation run.
// It always holds exactly one entry per requested check.
type Report struct {
	RunID     string       `json:"run_id"`
	CreatedAt time.Time    `json:"created_at"`
	Flags     ChannelFlags `json:"flags"`
	Separator string       `json:"separator"`
	Entries   []Entry      `json:"entries"`
}

// Get returns the entry for the given check id.
func (r *Report) Get(id string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Passed reports whether every entry passed.
func (r *Report) Passed() bool {
	for _, e := range r.Entries {
		if !e.Passed() {
			return false
		}
	}
	return true
}

// Count returns the number of entries with the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, e := range r.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// JoinMessages joins messages with sep, falling back to DefaultSeparator.
func JoinMessages(messages []string, sep string) string {
	if sep == "" {
		sep = DefaultSeparator
	}
	return strings.Join(messages, sep)
}
