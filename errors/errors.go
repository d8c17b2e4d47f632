package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// PlatformError is an error carrying an ErrorCode, a human readable message,
// optional structured context, and the underlying cause.
type PlatformError struct {
	Code    ErrorCode
	Message string
	Context map[string]interface{}
	Cause   error
}

// Error implements the error interface.
// The format is "CODE: message [k=v ...]: cause".
func (e *PlatformError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString("]")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}

	return b.String()
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *PlatformError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PlatformError with the same code.
// This allows errors.Is(err, errors.New(CodeX, "")) style comparisons.
func (e *PlatformError) Is(target error) bool {
	var t *PlatformError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates a PlatformError with the given code and message.
func New(code ErrorCode, message string) *PlatformError {
	return &PlatformError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a PlatformError with a formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *PlatformError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps err with a code and message. It returns nil if err is nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &PlatformError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// WrapWithContext wraps err with a code, message, and structured context.
// It returns nil if err is nil.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) error {
	if err == nil {
		return nil
	}
	return &PlatformError{
		Code:    code,
		Message: message,
		Context: ctx,
		Cause:   err,
	}
}

// Coder is implemented by errors that classify themselves with an ErrorCode.
type Coder interface {
	Code() ErrorCode
}

// GetCode returns the code of the first classified error in err's chain.
// It returns CodeUnknown when no error in the chain carries a code.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	for e := err; e != nil; e = stderrors.Unwrap(e) {
		switch v := e.(type) {
		case *PlatformError:
			return v.Code
		case Coder:
			return v.Code()
		}
	}

	return CodeUnknown
}

// HasCode reports whether err's chain carries the given code.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// Is is a passthrough to the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is a passthrough to the standard library errors.As.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
