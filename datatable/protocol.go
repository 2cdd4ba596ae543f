package datatable

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// Version is the wire protocol version written by [Encode].
	Version = "0.6"

	// DefaultResponseHandler is the JavaScript callback wrapping a response.
	DefaultResponseHandler = "google.visualization.Query.setResponse"
)

// Status is the overall outcome reported by a data source.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

// Message is an error or warning entry of a response.
type Message struct {
	Reason          string `json:"reason"`
	Message         string `json:"message,omitempty"`
	DetailedMessage string `json:"detailed_message,omitempty"`
}

// Response is a data source response envelope.
type Response struct {
	Version  string     `json:"version"`
	ReqID    string     `json:"reqId"`
	Status   Status     `json:"status"`
	Table    *DataTable `json:"table,omitempty"`
	Errors   []Message  `json:"errors,omitempty"`
	Warnings []Message  `json:"warnings,omitempty"`
}

// ResponseError is a failure reported by the data source itself, as opposed
// to a transport failure.
type ResponseError struct {
	Reason          string
	Message         string
	DetailedMessage string
}

func (e *ResponseError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Reason
	}
	if e.DetailedMessage != "" {
		return msg + ": " + e.DetailedMessage
	}
	return msg
}

// Parse decodes a response body. Both the callback-wrapped form
// ("handler({...});") and bare JSON are accepted.
func Parse(body []byte) (*Response, error) {
	payload, err := unwrap(body)
	if err != nil {
		return nil, err
	}

	var resp Response
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	resp.Status = Status(strings.ToLower(string(resp.Status)))
	if resp.Status == "" {
		resp.Status = StatusOK
	}
	return &resp, nil
}

// Decode parses a response body and returns its table. A response whose
// status is "error" yields a [*ResponseError] built from the first error
// entry. A successful response without a table is also an error.
func Decode(body []byte) (*DataTable, error) {
	resp, err := Parse(body)
	if err != nil {
		return nil, err
	}
	if resp.Status == StatusError {
		if len(resp.Errors) == 0 {
			return nil, &ResponseError{Reason: "internal_error", Message: "data source reported an error"}
		}
		first := resp.Errors[0]
		return nil, &ResponseError{
			Reason:          first.Reason,
			Message:         first.Message,
			DetailedMessage: first.DetailedMessage,
		}
	}
	if resp.Table == nil {
		return nil, errors.New("response contains no table")
	}
	return resp.Table, nil
}

// Encode renders a response wrapped in handler. An empty handler uses
// [DefaultResponseHandler]. Version and status default to [Version] and
// [StatusOK].
func Encode(resp Response, handler string) ([]byte, error) {
	if resp.Version == "" {
		resp.Version = Version
	}
	if resp.Status == "" {
		resp.Status = StatusOK
	}
	if handler == "" {
		handler = DefaultResponseHandler
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(handler) + len(data) + 3)
	buf.WriteString(handler)
	buf.WriteByte('(')
	buf.Write(data)
	buf.WriteString(");")
	return buf.Bytes(), nil
}

// unwrap strips an optional "handler(...);" wrapper around the JSON payload.
func unwrap(body []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, errors.New("empty response")
	}
	if trimmed[0] == '{' {
		return trimmed, nil
	}

	trimmed = bytes.TrimSuffix(trimmed, []byte(";"))
	open := bytes.IndexByte(trimmed, '(')
	end := bytes.LastIndexByte(trimmed, ')')
	if open < 0 || end < open {
		return nil, errors.New("response is neither JSON nor a wrapped JSON callback")
	}
	return bytes.TrimSpace(trimmed[open+1 : end]), nil
}
