package usecase

import "fmt"

type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorBusy         ErrorCode = "BUSY"
	ErrorNotFound     ErrorCode = "NOT_FOUND"
	ErrorTransport    ErrorCode = "TRANSPORT"
	ErrorReset        ErrorCode = "CONVERSATION_RESET"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsRejection reports whether the error is a local validation rejection, as
// opposed to a failed call to the backend.
func (e *Error) IsRejection() bool {
	return e != nil && (e.Code == ErrorInvalidInput || e.Code == ErrorBusy)
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}
