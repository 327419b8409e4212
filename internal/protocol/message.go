// Package protocol implements the wire-level data model for the editor
// protocol this server speaks: the message envelope, every request,
// response and notification payload, and the optionality rules the spec
// requires (absent, null and empty-but-present are three distinct states).
//
// Unlike a generated LSP schema, every type here carries only the fields
// this server's method set actually needs; see the package doc for
// individual handlers in internal/lspserver for which of these are used
// where.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ID is the string-or-null identity of a request. A zero ID (IsSet==false)
// means the message is a notification.
type ID struct {
	value string
	isSet bool
}

// NewID wraps a request id.
func NewID(v string) ID { return ID{value: v, isSet: true} }

// IsSet reports whether the id was present on the wire.
func (id ID) IsSet() bool { return id.isSet }

// String returns the id's string form ("" if unset).
func (id ID) String() string { return id.value }

// MarshalJSON encodes the id as a JSON string, or null when unset.
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.isSet {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON accepts a JSON string or number id (servers occasionally use
// numeric ids) and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ID{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = NewID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: expected string, number or null: %w", err)
	}
	*id = NewID(n.String())
	return nil
}

// Message is the wire envelope shared by requests, responses and
// notifications.
//
// Invariant: a request has Id set and Method non-empty; a response has
// Id set and Result present; a notification has Method non-empty and Id
// unset.
type Message struct {
	ProtocolVersion string          `json:"jsonrpc"`
	ID              *ID             `json:"id,omitempty"`
	Method          string          `json:"method,omitempty"`
	Params          json.RawMessage `json:"params,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
	Error           *ResponseError  `json:"error,omitempty"`
}

// ResponseError is a JSON-RPC-style error payload attached to a response.
type ResponseError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

const protocolVersion = "2.0"

// IsRequest reports whether m is a request (has an id and a method).
func (m *Message) IsRequest() bool {
	return m.ID != nil && m.ID.IsSet() && m.Method != ""
}

// IsNotification reports whether m is a notification (method, no id).
func (m *Message) IsNotification() bool {
	return m.Method != "" && (m.ID == nil || !m.ID.IsSet())
}

// IsResponse reports whether m is a response (id, result or error, no method).
func (m *Message) IsResponse() bool {
	return m.ID != nil && m.ID.IsSet() && m.Method == ""
}

// NewRequest builds a request message with encoded params.
func NewRequest(id string, method string, params any) (*Message, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params for %q: %w", method, err)
	}
	rid := NewID(id)
	return &Message{ProtocolVersion: protocolVersion, ID: &rid, Method: method, Params: raw}, nil
}

// NewNotification builds a notification message with encoded params.
func NewNotification(method string, params any) (*Message, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params for %q: %w", method, err)
	}
	return &Message{ProtocolVersion: protocolVersion, Method: method, Params: raw}, nil
}

// NewResult builds a success response for the given request id.
func NewResult(id ID, result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &Message{ProtocolVersion: protocolVersion, ID: &id, Result: raw}, nil
}

// NewError builds an error response for the given request id.
func NewError(id ID, code int, message string) *Message {
	return &Message{ProtocolVersion: protocolVersion, ID: &id, Error: &ResponseError{Code: code, Message: message}}
}

// Error codes, a subset of the JSON-RPC 2.0 reserved range.
const (
	ErrorCodeParseError     = -32700
	ErrorCodeInvalidRequest = -32600
	ErrorCodeMethodNotFound = -32601
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603
)

// DecodeParams unmarshals m.Params into a T value. A message with no params
// decodes to the zero value.
func DecodeParams[T any](m *Message) (T, error) {
	var v T
	if len(m.Params) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(m.Params, &v); err != nil {
		return v, fmt.Errorf("decode params for %q: %w", m.Method, err)
	}
	return v, nil
}

// DecodeResult unmarshals m.Result into a T value.
func DecodeResult[T any](m *Message) (T, error) {
	var v T
	if len(m.Result) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(m.Result, &v); err != nil {
		return v, fmt.Errorf("decode result: %w", err)
	}
	return v, nil
}
