package domain

import (
	"errors"
	"fmt"
)

// ErrAlreadyBlocked is reported by the admin write endpoint when the target
// server already has a block for the domain. Importers count these as skips
// rather than failures.
var ErrAlreadyBlocked = errors.New("domain is already blocked")

// FetchError wraps a failure to retrieve or parse a single source's block
// list. Fetch errors are recoverable: the run continues with the remaining
// sources and the host is reported as skipped.
type FetchError struct {
	Host string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching block list from %s: %v", e.Host, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// AuthError reports a rejected or insufficiently scoped credential. It is
// fatal for the operation that required it and carries the remediation in
// its message.
type AuthError struct {
	Host   string
	Status int    // HTTP status the server answered with
	Scope  string // OAuth scope the operation requires
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s rejected the access token (HTTP %d): regenerate the token with the %s scope",
		e.Host, e.Status, e.Scope)
}
