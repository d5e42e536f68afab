package gateway

import (
	"encoding/json"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	unknownErrorMessage = "Unknown error"
	defaultErrorMessage = "API request failed"
)

// APIError is returned for any non-2xx response.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Code is the optional application code from the error body.
	Code    string
	Message string

	cause *goerrors.Error
}

// Error returns the message reported by the backend.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap exposes the categorized error, so goerrors.IsNotFound and friends
// work on gateway errors.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Category returns the error category derived from the status code.
func (e *APIError) Category() goerrors.Category {
	return e.cause.Category
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// newAPIError builds the error for a failed response. The body's message wins,
// then its error field; a body that is not JSON reads as "Unknown error".
func newAPIError(status int, raw []byte) *APIError {
	var body errorBody
	message := unknownErrorMessage
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Message != "":
			message = body.Message
		case body.Error != "":
			message = body.Error
		default:
			message = defaultErrorMessage
		}
	}

	textCode := body.Code
	if textCode == "" {
		textCode = goerrors.HTTPStatusToTextCode(status)
	}

	category := goerrors.HTTPStatusToCategory(status)
	if status >= http.StatusInternalServerError {
		category = goerrors.CategoryExternal
	}

	cause := goerrors.New(message, category).
		WithCode(status).
		WithTextCode(textCode)

	return &APIError{
		Status:  status,
		Code:    body.Code,
		Message: message,
		cause:   cause,
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if goerrors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
