package actions

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrActionFailed is matched by every error returned from Result.Err.
var ErrActionFailed = goerrors.New("action failed", goerrors.CategoryOperation).
	WithTextCode("ACTION_FAILED")

// Result is the outcome of an action.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	cause error
}

func succeeded(message string) Result {
	return Result{Success: true, Message: message}
}

func failed(message string, cause error) Result {
	return Result{Success: false, Error: message, cause: cause}
}

// Err returns nil for a successful result. Otherwise the error matches
// ErrActionFailed and also unwraps to the underlying gateway error, if any.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	msg := r.Error
	if msg == "" {
		msg = r.Message
	}
	if msg == "" {
		msg = ErrActionFailed.Message
	}
	return &ActionError{Message: msg, cause: r.cause}
}

// ActionError is a failed Result seen as an error.
type ActionError struct {
	Message string
	cause   error
}

func (e *ActionError) Error() string {
	return e.Message
}

func (e *ActionError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrActionFailed}
	}
	return []error{e.cause, ErrActionFailed}
}
