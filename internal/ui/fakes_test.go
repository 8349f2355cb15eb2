package ui

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/net/html"

	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/transport"
)

type call struct {
	op   string
	id   domain.ID
	data transport.Data
	cb   transport.Callback
}

func (c *call) reply(body string) { c.cb(nil, []byte(body)) }

// fakeResource records calls. Operations listed in auto are answered at
// once; the others wait for the test to reply.
type fakeResource struct {
	mu    sync.Mutex
	calls []*call
	auto  map[string]string
}

func (r *fakeResource) record(op string, id domain.ID, data transport.Data, cb transport.Callback) *transport.Handle {
	c := &call{op: op, id: id, data: data, cb: cb}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	body, ok := r.auto[op]
	r.mu.Unlock()
	if ok {
		c.reply(body)
	}
	return nil
}

func (r *fakeResource) List(ctx context.Context, filter transport.Data, cb transport.Callback) *transport.Handle {
	return r.record("list", "", filter, cb)
}

func (r *fakeResource) Create(ctx context.Context, item transport.Data, cb transport.Callback) *transport.Handle {
	return r.record("create", "", item, cb)
}

func (r *fakeResource) Get(ctx context.Context, id domain.ID, filter transport.Data, cb transport.Callback) *transport.Handle {
	return r.record("get", id, filter, cb)
}

func (r *fakeResource) Remove(ctx context.Context, id domain.ID, filter transport.Data, cb transport.Callback) *transport.Handle {
	return r.record("remove", id, filter, cb)
}

func (r *fakeResource) count(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (r *fakeResource) last(op string) *call {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.calls) - 1; i >= 0; i-- {
		if r.calls[i].op == op {
			return r.calls[i]
		}
	}
	return nil
}

type fakeCoordinator struct {
	events    []string
	onRefresh func()
}

func (c *fakeCoordinator) RefreshAll() {
	c.events = append(c.events, "refresh")
	if c.onRefresh != nil {
		c.onRefresh()
	}
}

func (c *fakeCoordinator) Navigate(view string, params map[string]string) {
	c.events = append(c.events, fmt.Sprintf("navigate %s %v", view, params))
}

func (c *fakeCoordinator) OpenModal(name string)  { c.events = append(c.events, "open "+name) }
func (c *fakeCoordinator) CloseModal(name string) { c.events = append(c.events, "close "+name) }
func (c *fakeCoordinator) SetModalMessage(name, message string) {
	c.events = append(c.events, "message "+name+": "+message)
}
func (c *fakeCoordinator) ResetForm(name string)    { c.events = append(c.events, "reset "+name) }
func (c *fakeCoordinator) SetTopState(state string) { c.events = append(c.events, "state "+state) }

func (c *fakeCoordinator) count(event string) int {
	n := 0
	for _, e := range c.events {
		if e == event {
			n++
		}
	}
	return n
}

type fakeNotifier struct {
	confirm  bool
	alerts   []string
	confirms []string
}

func (n *fakeNotifier) Alert(message string) { n.alerts = append(n.alerts, message) }

func (n *fakeNotifier) Confirm(message string) bool {
	n.confirms = append(n.confirms, message)
	return n.confirm
}

type fakeSession struct{ user *domain.User }

func (s fakeSession) Current() (*domain.User, bool) { return s.user, s.user != nil }

func ids(n *html.Node, class string) []string {
	var out []string
	for _, c := range Children(n, class) {
		out = append(out, DataID(c))
	}
	return out
}
