package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// APIError is returned for any non-success HTTP status. Body holds the
// response body as JSON; a body that is not valid JSON is kept as a JSON
// string.
type APIError struct {
	StatusCode int
	Body       json.RawMessage
}

func newAPIError(status int, body []byte) *APIError {
	if len(body) == 0 {
		return &APIError{StatusCode: status, Body: json.RawMessage("null")}
	}
	if json.Valid(body) {
		return &APIError{StatusCode: status, Body: json.RawMessage(body)}
	}
	quoted, _ := json.Marshal(string(body))
	return &APIError{StatusCode: status, Body: quoted}
}

func (e *APIError) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, detail)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, string(e.Body))
}

// Detail extracts a human readable message from the structured error body.
// Both {"detail": "msg"} and {"detail": [{"msg": "..."}]} are understood; the
// empty string means the body had no usable detail.
func (e *APIError) Detail() string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(e.Body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
		return items[0].Msg
	}
	return ""
}

// AsAPIError unwraps err into an *APIError if it is one
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
