package models

import (
	"errors"
	"fmt"
)

// NetworkError means a fetch or download failed at the transport level or with a
// non-200 status. The dispatcher escalates these to the browser once.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network error fetching %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("network error fetching %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFoundError means the page loaded but the photo (or another required piece) was not there.
type NotFoundError struct {
	URL  string
	What string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("could not find %s on %s", e.What, e.URL)
}

// BlockedError means the site is known to block automation. Message tells the user what to do.
type BlockedError struct {
	Site    string
	Message string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s blocks automated access: %s", e.Site, e.Message)
}

// InvalidInputError is raised before any network activity.
type InvalidInputError struct {
	Input  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// IsNetworkError reports whether err (or anything it wraps) is a NetworkError.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// Describe turns an error into the one-line message shown to the user.
func Describe(err error) string {
	var (
		ne *NetworkError
		nf *NotFoundError
		be *BlockedError
		ie *InvalidInputError
	)
	switch {
	case errors.As(err, &be):
		return "Blocked: " + be.Error()
	case errors.As(err, &ie):
		return "Invalid input: " + ie.Error()
	case errors.As(err, &nf):
		return "Not found: " + err.Error()
	case errors.As(err, &ne):
		return "Network error: " + err.Error()
	default:
		return "Error: " + err.Error()
	}
}
