package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoData is returned by DecodeData when the envelope carries no data.
var ErrNoData = errors.New("envelope has no data")

// Envelope is the shape of every reply from the finance service.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`
	User    *User           `json:"user,omitempty"`
}

// ParseEnvelope decodes a response body.
func ParseEnvelope(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// DecodeData unmarshals the data field into v.
func (e *Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 || bytes.Equal(e.Data, []byte("null")) {
		return ErrNoData
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode envelope data: %w", err)
	}
	return nil
}

// ErrorMessage flattens the error field for display. Plain strings are
// returned as is; objects such as {"email": ["taken"]} become "taken",
// joined in key order when several fields failed.
func (e *Envelope) ErrorMessage() string {
	if len(e.Error) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Error, &s); err == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(e.Error, &obj); err != nil {
		return string(e.Error)
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		parts = append(parts, flattenMessage(obj[k])...)
	}
	return strings.Join(parts, "; ")
}

func flattenMessage(raw json.RawMessage) []string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	return []string{string(raw)}
}

// Err returns nil for a successful envelope and an error carrying
// ErrorMessage otherwise.
func (e *Envelope) Err() error {
	if e.Success {
		return nil
	}
	msg := e.ErrorMessage()
	if msg == "" {
		msg = "request was not successful"
	}
	return errors.New(msg)
}
