/*
Package errs provides custom error types and application-level error code constants.

This file defines CustomError, which implements the error interface and carries a business
code, a user-facing message and an HTTP status code.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"whatsgram/internal/pkg/logx"
)

// CustomError is the error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-facing error description.
	Message string

	// Status is the HTTP status code corresponding to this error.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// NewError builds a *CustomError from a predefined code.
// details are printf arguments for templates containing a verb; for ErrUnknown the first
// detail may be the underlying error, which is logged. Unknown codes map to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &unknownErr
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn(
				"Details provided for error, but message template has no formatting placeholders. Details ignored.",
				"code", code,
			)
		}
	}

	return &customErr
}

// Rejected wraps a backend failure message so it is surfaced verbatim.
// An empty message falls back to the generic request failure.
func Rejected(message string) *CustomError {
	if strings.TrimSpace(message) == "" {
		return NewError(ErrRequestFailed)
	}
	return NewError(ErrBackendRejected, message)
}

// As extracts a *CustomError from err.
func As(err error) (*CustomError, bool) {
	var customErr *CustomError
	if errors.As(err, &customErr) {
		return customErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code int) bool {
	customErr, ok := As(err)
	return ok && customErr.Code == code
}

// UserMessage returns the message to show for err, falling back to the generic request
// failure for errors that carry no user-facing text.
func UserMessage(err error) string {
	if customErr, ok := As(err); ok {
		return customErr.Message
	}
	return errorMap[ErrRequestFailed].Message
}
