// Package errors provides the structured error system used across reposync.
// It extends Go's standard error handling with string error codes, context
// preservation, and errors.Is/errors.As compatibility.
package errors

// ErrorCode represents a specific failure condition of a synchronization run.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Synchronization errors.

	// CodeCloneFailed indicates obtaining a fresh working copy failed
	// (network, authentication, invalid URL, permissions).
	CodeCloneFailed ErrorCode = "CLONE_FAILED"

	// CodeUpdateFailed indicates updating an existing working copy failed
	// (diverged history, non-fast-forward, network).
	CodeUpdateFailed ErrorCode = "UPDATE_FAILED"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates the configuration document is malformed
	// or missing required fields.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Execution errors.

	// CodeComposeFailed indicates the repository composer could not produce
	// the derived database (malformed content, conflicting overlay entries).
	CodeComposeFailed ErrorCode = "COMPOSE_FAILED"

	// CodePublishFailed indicates uploading the composed artifacts failed.
	CodePublishFailed ErrorCode = "PUBLISH_FAILED"

	// CodeExecutionFailed indicates an external command could not be run.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// Infrastructure errors.

	// CodeIO indicates a filesystem access failure (existence checks,
	// path resolution, reading or writing files).
	CodeIO ErrorCode = "IO_ERROR"

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// Generic errors.

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
