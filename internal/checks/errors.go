// Package checks holds the check registry and the individual markup rules.
package checks

import "fmt"

// DuplicateIDError is returned when a descriptor id is registered twice
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("check '%s' is already registered", e.ID)
}

// NotFoundError is returned when a check id is not registered
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no check registered with id '%s'", e.ID)
}

// InvalidDescriptorError is returned when a descriptor is missing required fields
type InvalidDescriptorError struct {
	ID      string
	Message string
}

func (e *InvalidDescriptorError) Error() string {
	return fmt.Sprintf("invalid check descriptor '%s': %s", e.ID, e.Message)
}

// CheckExecutionError wraps a failure raised by a check function itself,
// as opposed to a violation the check reports.
type CheckExecutionError struct {
	CheckID string
	Cause   error
}

func (e *CheckExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("check '%s' failed: %v", e.CheckID, e.Cause)
	}
	return fmt.Sprintf("check '%s' failed", e.CheckID)
}

func (e *CheckExecutionError) Unwrap() error {
	return e.Cause
}

// UnverifiedError is returned by a check that could not finish verifying
// everything it inspects. Messages returned alongside it are still reported.
type UnverifiedError struct {
	CheckID string
	Count   int
	Cause   error
}

func (e *UnverifiedError) Error() string {
	msg := fmt.Sprintf("check '%s' could not verify %d item(s)", e.CheckID, e.Count)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *UnverifiedError) Unwrap() error {
	return e.Cause
}

// ParseError represents a failure to build a DOM from the page source
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
