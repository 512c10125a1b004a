package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string
	Path    string
	// Err is an extra cause, such as shared.ErrRefreshFailed after a failed refresh.
	Err error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("api: %s: %d %s: %v", e.Path, e.Status, msg, e.Err)
	}
	return fmt.Sprintf("api: %s: %d %s", e.Path, e.Status, msg)
}

// Unwrap exposes ErrAPI, the status sentinel and the extra cause.
func (e *Error) Unwrap() []error {
	errs := []error{shared.ErrAPI}
	if sentinel := statusSentinel(e.Status); sentinel != nil {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func statusSentinel(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return shared.ErrUnauthorized
	case http.StatusForbidden:
		return shared.ErrForbidden
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusConflict:
		return shared.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return shared.ErrRejected
	}
	return nil
}

type messageBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ErrorFromResponse returns nil for a 2xx response and an *Error otherwise.
func ErrorFromResponse(path string, resp *Response) error {
	if resp == nil || resp.OK() {
		return nil
	}
	return &Error{Status: resp.Status, Message: MessageOf(resp), Path: path}
}

// MessageOf extracts the backend "message" field, if any.
func MessageOf(resp *Response) string {
	if resp == nil {
		return ""
	}
	var body messageBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// StatusOf returns the status of an *Error in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
