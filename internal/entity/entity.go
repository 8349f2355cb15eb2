// Package entity implements the generic list/create/get/remove protocol
// shared by every resource of the finance service.
package entity

import (
	"context"
	"strings"

	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/transport"
)

// Verb emulation: the service only sees GET and POST, POST bodies carry the
// intended verb in MethodField.
const (
	MethodField  = "_method"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)

// Base paths of the concrete resources.
const (
	AccountPath     = "/account"
	TransactionPath = "/transaction"
)

// Executor is the transport capability the protocol needs.
type Executor interface {
	Execute(ctx context.Context, req transport.Request, cb transport.Callback) *transport.Handle
}

// Resource exposes the CRUD protocol over one base path. It never inspects
// the response envelope: callbacks are passed through to the transport.
type Resource struct {
	exec     Executor
	baseURL  string
	basePath string
}

// New creates a resource rooted at baseURL+basePath.
func New(exec Executor, baseURL, basePath string) *Resource {
	return &Resource{
		exec:     exec,
		baseURL:  strings.TrimRight(baseURL, "/"),
		basePath: basePath,
	}
}

// NewAccounts returns the account resource.
func NewAccounts(exec Executor, baseURL string) *Resource {
	return New(exec, baseURL, AccountPath)
}

// NewTransactions returns the transaction resource.
func NewTransactions(exec Executor, baseURL string) *Resource {
	return New(exec, baseURL, TransactionPath)
}

// URL is the full resource URL.
func (r *Resource) URL() string {
	return r.baseURL + r.basePath
}

// List fetches every item matching filter.
func (r *Resource) List(ctx context.Context, filter transport.Data, cb transport.Callback) *transport.Handle {
	return r.exec.Execute(ctx, transport.Request{
		URL:          r.URL(),
		Data:         filter.Copy(),
		Method:       transport.MethodGet,
		ResponseType: transport.ResponseTypeJSON,
	}, cb)
}

// Create posts item with the PUT marker.
func (r *Resource) Create(ctx context.Context, item transport.Data, cb transport.Callback) *transport.Handle {
	data := item.Copy()
	data[MethodField] = MethodPut
	return r.exec.Execute(ctx, transport.Request{
		URL:          r.URL(),
		Data:         data,
		Method:       transport.MethodPost,
		ResponseType: transport.ResponseTypeJSON,
	}, cb)
}

// Get fetches a single item by id.
func (r *Resource) Get(ctx context.Context, id domain.ID, filter transport.Data, cb transport.Callback) *transport.Handle {
	return r.exec.Execute(ctx, transport.Request{
		URL:          r.URL() + "/" + id.String(),
		Data:         filter.Copy(),
		Method:       transport.MethodGet,
		ResponseType: transport.ResponseTypeJSON,
	}, cb)
}

// Remove posts filter with the DELETE marker and the item id.
func (r *Resource) Remove(ctx context.Context, id domain.ID, filter transport.Data, cb transport.Callback) *transport.Handle {
	data := filter.Copy()
	data[MethodField] = MethodDelete
	data["id"] = id.String()
	return r.exec.Execute(ctx, transport.Request{
		URL:          r.URL(),
		Data:         data,
		Method:       transport.MethodPost,
		ResponseType: transport.ResponseTypeJSON,
	}, cb)
}
