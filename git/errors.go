// Package git provides sentinel errors for common git operations.
// All errors can be checked using errors.Is() for programmatic handling.
package git

import (
	"errors"
	"fmt"
)

// Common sentinel errors that can be checked with errors.Is().
// These wrap underlying go-git errors while providing a stable API for consumers.

// ErrAlreadyUpToDate is returned when a pull results in no changes because
// the local and remote states are already synchronized.
var ErrAlreadyUpToDate = errors.New("already up to date")

// ErrAuthRequired is returned when an operation requires authentication
// but no credentials were provided or available.
var ErrAuthRequired = errors.New("authentication required")

// ErrNotFastForward is returned when a pull cannot be performed as a
// fast-forward because local and remote history diverged.
var ErrNotFastForward = errors.New("not a fast-forward")

// ErrInvalidRef is returned when an argument or option is malformed.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a remote or revision cannot be resolved.
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrNotRepository is returned by Open when the location holds no git repository.
var ErrNotRepository = errors.New("repository does not exist")

// ErrEmptyCommit is returned when a commit would record no changes.
var ErrEmptyCommit = errors.New("empty commit")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
