package mirror

import (
	"fmt"

	"github.com/input-output-hk/reposync/errors"
)

// Op is the working-copy operation that failed.
type Op string

const (
	// OpClone is obtaining a fresh working copy.
	OpClone Op = "clone"

	// OpUpdate is a fast-forward-only update of an existing working copy.
	OpUpdate Op = "update"
)

// SyncError reports a failed clone or update of one source.
// Detail is the transport's diagnostic output.
type SyncError struct {
	Source string
	Op     Op
	Detail string
	Err    error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s of %q failed: %s", e.Code(), e.Op, e.Source, e.Detail)
}

// Unwrap returns the transport error.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// Code maps the failed operation to CLONE_FAILED or UPDATE_FAILED.
func (e *SyncError) Code() errors.ErrorCode {
	if e.Op == OpClone {
		return errors.CodeCloneFailed
	}
	return errors.CodeUpdateFailed
}
