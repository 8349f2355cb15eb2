package transport

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"sort"
	"strings"
)

// Method is one of the two verbs the transport sends natively.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
)

// ResponseTypeJSON asks the transport to reject bodies that are not JSON.
const ResponseTypeJSON = "json"

// Data is the request payload: query parameters for GET, form fields for POST.
type Data map[string]any

// Request describes a single call to the finance service.
type Request struct {
	URL          string
	Data         Data
	Method       Method
	ResponseType string
	Headers      map[string]string
}

// Callback receives exactly one of (err, nil) or (nil, body).
type Callback func(err error, body []byte)

// ErrInvalidJSON is delivered when a JSON response type was requested and the
// body could not be parsed.
var ErrInvalidJSON = errors.New("response body is not valid JSON")

// StatusError reports a completed call whose status code is outside [200,400).
type StatusError struct {
	Code int
	Text string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed: code = %d, text = %s", e.Code, e.Text)
}

// valid reports whether the request passes the setup precondition. Requests
// failing it are dropped without a callback.
func (r *Request) valid() bool {
	if r.URL == "" {
		return false
	}
	return r.Method == MethodGet || r.Method == MethodPost
}

// Copy returns a shallow copy of d, never nil.
func (d Data) Copy() Data {
	out := make(Data, len(d)+2)
	for k, v := range d {
		out[k] = v
	}
	return out
}

func (d Data) sortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// QueryString renders d as "?k=v&..." or "" for an empty mapping.
func (d Data) QueryString() string {
	if len(d) == 0 {
		return ""
	}
	parts := make([]string, 0, len(d))
	for _, k := range d.sortedKeys() {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(formatValue(d[k])))
	}
	return "?" + strings.Join(parts, "&")
}

// Multipart renders d as a multipart/form-data body and returns it together
// with the matching Content-Type.
func (d Data) Multipart() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for _, k := range d.sortedKeys() {
		if err := w.WriteField(k, formatValue(d[k])); err != nil {
			return nil, "", fmt.Errorf("write field %q: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
