package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type result struct {
	err   error
	body  []byte
	calls int
}

func collect() (*result, Callback) {
	r := &result{}
	return r, func(err error, body []byte) {
		r.calls++
		r.err = err
		r.body = body
	}
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(WithTimeout(5 * time.Second))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

func TestExecute_RejectedRequestsNeverCallBack(t *testing.T) {
	c := newTestClient(t)

	tests := []struct {
		name string
		req  Request
	}{
		{"empty url", Request{Method: MethodGet}},
		{"empty method", Request{URL: "http://example.invalid/account"}},
		{"unsupported method", Request{URL: "http://example.invalid/account", Method: "PATCH"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, cb := collect()
			h := c.Execute(context.Background(), tt.req, cb)
			if h == nil {
				t.Fatal("expected a handle")
			}
			if !h.Inert() {
				t.Error("expected inert handle")
			}
			h.Wait()
			if r.calls != 0 {
				t.Errorf("callback fired %d times, want 0", r.calls)
			}
		})
	}
}

func TestExecute_GetSerializesQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"success":true,"data":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t)
	r, cb := collect()
	h := c.Execute(context.Background(), Request{
		URL:          srv.URL + "/transaction",
		Method:       MethodGet,
		ResponseType: ResponseTypeJSON,
		Data:         Data{"account_id": 7, "b": "x"},
	}, cb)
	h.Wait()

	if r.calls != 1 {
		t.Fatalf("callback fired %d times, want 1", r.calls)
	}
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if gotQuery != "account_id=7&b=x" {
		t.Errorf("query = %q", gotQuery)
	}
	if string(r.body) != `{"success":true,"data":[]}` {
		t.Errorf("body = %s", r.body)
	}
}

func TestExecute_GetWithEmptyDataHasNoQuery(t *testing.T) {
	var rawURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawURL = r.URL.String()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t)
	_, cb := collect()
	c.Execute(context.Background(), Request{URL: srv.URL + "/user/current", Method: MethodGet}, cb).Wait()

	if rawURL != "/user/current" {
		t.Errorf("url = %q, want no query string", rawURL)
	}
}

func TestExecute_PostSendsMultipart(t *testing.T) {
	var fields map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
		}
		fields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			fields[k] = v[0]
		}
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := newTestClient(t)
	r, cb := collect()
	c.Execute(context.Background(), Request{
		URL:    srv.URL + "/account",
		Method: MethodPost,
		Data:   Data{"name": "Cash", "_method": "PUT"},
	}, cb).Wait()

	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if fields["name"] != "Cash" || fields["_method"] != "PUT" {
		t.Errorf("fields = %v", fields)
	}
}

func TestExecute_StatusErrors(t *testing.T) {
	for _, code := range []int{400, 404, 500} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			io.WriteString(w, "nope")
		}))

		c := newTestClient(t)
		r, cb := collect()
		c.Execute(context.Background(), Request{URL: srv.URL, Method: MethodGet}, cb).Wait()
		srv.Close()

		if r.calls != 1 {
			t.Fatalf("code %d: callback fired %d times", code, r.calls)
		}
		var se *StatusError
		if !errors.As(r.err, &se) {
			t.Fatalf("code %d: error = %v, want *StatusError", code, r.err)
		}
		if se.Code != code || se.Text != http.StatusText(code) {
			t.Errorf("StatusError = %+v", se)
		}
		if r.body != nil {
			t.Errorf("code %d: body = %q, want nil", code, r.body)
		}
	}
}

func TestExecute_RedirectStatusIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	c := newTestClient(t)
	r, cb := collect()
	c.Execute(context.Background(), Request{URL: srv.URL, Method: MethodGet}, cb).Wait()

	if r.err != nil {
		t.Errorf("unexpected error for 304: %v", r.err)
	}
}

func TestExecute_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "<html>")
	}))
	defer srv.Close()

	c := newTestClient(t)
	r, cb := collect()
	c.Execute(context.Background(), Request{URL: srv.URL, Method: MethodGet, ResponseType: ResponseTypeJSON}, cb).Wait()

	if !errors.Is(r.err, ErrInvalidJSON) {
		t.Errorf("error = %v, want ErrInvalidJSON", r.err)
	}
}

func TestExecute_SetupErrorIsSynchronous(t *testing.T) {
	c := newTestClient(t)
	r, cb := collect()

	h := c.Execute(context.Background(), Request{URL: "http://[::1", Method: MethodGet}, cb)

	if r.calls != 1 {
		t.Fatalf("callback fired %d times before Execute returned, want 1", r.calls)
	}
	if r.err == nil || r.body != nil {
		t.Errorf("got (%v, %q), want (err, nil)", r.err, r.body)
	}
	select {
	case <-h.Done():
	default:
		t.Error("handle should be done after a setup error")
	}
}

func TestExecute_HeadersAndCookies(t *testing.T) {
	var gotHeader, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "abc", Path: "/"})
			return
		}
		gotHeader = r.Header.Get("X-Trace")
		if ck, err := r.Cookie("sid"); err == nil {
			gotCookie = ck.Value
		}
	}))
	defer srv.Close()

	c := newTestClient(t)
	_, cb := collect()
	c.Execute(context.Background(), Request{URL: srv.URL + "/login", Method: MethodPost}, cb).Wait()
	c.Execute(context.Background(), Request{
		URL:     srv.URL + "/account",
		Method:  MethodGet,
		Headers: map[string]string{"X-Trace": "t1"},
	}, cb).Wait()

	if gotHeader != "t1" {
		t.Errorf("header = %q", gotHeader)
	}
	if gotCookie != "abc" {
		t.Errorf("cookie = %q, want credentials attached", gotCookie)
	}
}

type recordingDispatcher struct{ n int }

func (d *recordingDispatcher) Dispatch(fn func()) {
	d.n++
	fn()
}

func TestExecute_UsesDispatcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	d := &recordingDispatcher{}
	c, err := NewClient(WithDispatcher(d))
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	_, cb := collect()
	c.Execute(context.Background(), Request{URL: srv.URL, Method: MethodGet}, cb).Wait()

	if d.n != 1 {
		t.Errorf("dispatcher used %d times, want 1", d.n)
	}
}

func TestNewClient_TimeoutLeavesCallerClientAlone(t *testing.T) {
	for _, order := range []string{"timeout first", "client first"} {
		t.Run(order, func(t *testing.T) {
			own := &http.Client{Timeout: time.Minute}
			opts := []Option{WithTimeout(2 * time.Second), WithHTTPClient(own)}
			if order == "client first" {
				opts[0], opts[1] = opts[1], opts[0]
			}

			c, err := NewClient(opts...)
			if err != nil {
				t.Fatalf("NewClient failed: %v", err)
			}
			if own.Timeout != time.Minute {
				t.Errorf("caller client timeout = %v, want it unchanged", own.Timeout)
			}
			if c.httpClient.Timeout != 2*time.Second {
				t.Errorf("effective timeout = %v, want 2s", c.httpClient.Timeout)
			}
		})
	}
}

func TestDataQueryString(t *testing.T) {
	tests := []struct {
		data Data
		want string
	}{
		{nil, ""},
		{Data{}, ""},
		{Data{"id": 1}, "?id=1"},
		{Data{"b": "2", "a": "1"}, "?a=1&b=2"},
		{Data{"name": "a b"}, "?name=a+b"},
	}
	for _, tt := range tests {
		if got := tt.data.QueryString(); got != tt.want {
			t.Errorf("QueryString(%v) = %q, want %q", tt.data, got, tt.want)
		}
	}
}
