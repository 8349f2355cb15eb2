// Package app is the page controller: it owns the document, builds the
// components on it and carries out the requests they make of it.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/logger"
	"github.com/dvloznov/finance-client/internal/session"
	"github.com/dvloznov/finance-client/internal/transport"
	"github.com/dvloznov/finance-client/internal/ui"
)

// Deps are the collaborators the application is built from.
type Deps struct {
	Sessions     *session.Service
	Accounts     ui.Resource
	Transactions ui.Resource
	Notifier     ui.Notifier
	Log          zerolog.Logger
}

// ModalState is what a dialog currently shows.
type ModalState struct {
	Open    bool
	Message string
}

// App implements ui.Coordinator.
type App struct {
	ctx      context.Context
	log      zerolog.Logger
	sessions *session.Service

	mu      sync.Mutex
	state   string
	view    string
	params  map[string]string
	modals  map[string]ModalState
	resets  map[string]int
	pending []*transport.Handle

	doc     *html.Node
	panel   *html.Node
	title   *html.Node
	content *html.Node

	Sidebar       *ui.Sidebar
	Accounts      *ui.AccountsWidget
	Page          *ui.TransactionsPage
	CreateAccount *ui.CreateAccountForm
	Income        *ui.CreateTransactionForm
	Expense       *ui.CreateTransactionForm
	Login         *ui.LoginForm
	Register      *ui.RegisterForm
}

var _ ui.Coordinator = (*App)(nil)

// New builds the document and every component on it. ctx is used for all
// requests the application issues on its own, such as refreshes.
func New(ctx context.Context, deps Deps) (*App, error) {
	if deps.Sessions == nil || deps.Accounts == nil || deps.Transactions == nil || deps.Notifier == nil {
		return nil, errors.New("app: sessions, resources and notifier are required")
	}

	a := &App{
		ctx:      ctx,
		log:      logger.ForComponent(deps.Log, "app"),
		sessions: deps.Sessions,
		state:    ui.StateInit,
		modals:   make(map[string]ModalState),
		resets:   make(map[string]int),
	}
	a.buildDocument()

	cache := deps.Sessions.Cache()
	var err error

	a.Sidebar = ui.NewSidebar(deps.Sessions, a, deps.Notifier, deps.Log)
	if a.Accounts, err = ui.NewAccountsWidget(ctx, a.panel, cache, deps.Accounts, a, deps.Notifier, deps.Log); err != nil {
		return nil, fmt.Errorf("accounts widget: %w", err)
	}
	if a.Page, err = ui.NewTransactionsPage(a.content, a.title, deps.Accounts, deps.Transactions, a, deps.Notifier, deps.Log); err != nil {
		return nil, fmt.Errorf("transactions page: %w", err)
	}
	a.Page.Clear()

	a.CreateAccount = ui.NewCreateAccountForm(deps.Accounts, a, deps.Log)
	incomeSelect := a.appendSelect(ui.FormCreateIncome)
	if a.Income, err = ui.NewCreateTransactionForm(ctx, domain.TransactionIncome, incomeSelect, cache, deps.Accounts, deps.Transactions, a, deps.Notifier, deps.Log); err != nil {
		return nil, fmt.Errorf("income form: %w", err)
	}
	expenseSelect := a.appendSelect(ui.FormCreateExpense)
	if a.Expense, err = ui.NewCreateTransactionForm(ctx, domain.TransactionExpense, expenseSelect, cache, deps.Accounts, deps.Transactions, a, deps.Notifier, deps.Log); err != nil {
		return nil, fmt.Errorf("expense form: %w", err)
	}
	a.Login = ui.NewLoginForm(deps.Sessions, a, deps.Log)
	a.Register = ui.NewRegisterForm(deps.Sessions, a, deps.Log)

	return a, nil
}

func (a *App) buildDocument() {
	a.panel = ui.Element("ul", "sidebar-menu", "accounts-panel")
	a.title = ui.Element("h1", "content-title")
	a.content = ui.Element("section", "content")

	a.doc = ui.Append(ui.Element("div", "app"),
		ui.Append(ui.Element("aside", "main-sidebar"), a.panel),
		ui.Append(ui.Element("section", "content-wrapper"), a.title, a.content),
	)
}

func (a *App) appendSelect(form string) *html.Node {
	sel := ui.Element("select", "accounts-select")
	ui.SetAttr(sel, "name", "account_id")
	f := ui.Element("form")
	ui.SetAttr(f, "data-form", form)
	a.doc.AppendChild(ui.Append(f, sel))
	return sel
}

// Start asks the service who is logged in and enters the matching state.
func (a *App) Start() *transport.Handle {
	h := a.sessions.Fetch(a.ctx, nil, func(err error, env *domain.Envelope) {
		if err == nil && env != nil && env.Success {
			a.SetTopState(ui.StateUserLogged)
			return
		}
		a.SetTopState(ui.StateInit)
	})
	a.Track(h)
	return h
}

// Track registers handles for Wait. Nil and inert handles are ignored.
func (a *App) Track(handles ...*transport.Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, h := range handles {
		if h != nil && !h.Inert() {
			a.pending = append(a.pending, h)
		}
	}
}

// Wait blocks until every tracked request has completed, including those
// issued by callbacks while waiting, or ctx is done.
func (a *App) Wait(ctx context.Context) error {
	for {
		a.mu.Lock()
		batch := a.pending
		a.pending = nil
		a.mu.Unlock()

		if len(batch) == 0 {
			return nil
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, h := range batch {
			h := h
			g.Go(func() error {
				select {
				case <-h.Done():
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
}

// RefreshAll reloads the accounts, the page on display and the account
// selectors of both transaction forms.
func (a *App) RefreshAll() {
	a.log.Debug().Msg("Refreshing")
	a.Track(a.Accounts.Update(a.ctx))
	title, list := a.Page.Update(a.ctx)
	a.Track(title, list)
	a.Track(a.Income.RenderAccountsList(a.ctx), a.Expense.RenderAccountsList(a.ctx))
}

// Navigate switches the content area to view.
func (a *App) Navigate(view string, params map[string]string) {
	a.mu.Lock()
	a.view = view
	a.params = copyParams(params)
	a.mu.Unlock()

	switch view {
	case ui.ViewTransactions:
		title, list := a.Page.Render(a.ctx, ui.Options(copyParams(params)))
		a.Track(title, list)
	default:
		a.log.Warn().Str("view", view).Msg("Unknown view")
	}
}

// OpenModal shows a dialog with no message.
func (a *App) OpenModal(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.modals[name] = ModalState{Open: true}
}

// CloseModal hides a dialog.
func (a *App) CloseModal(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.modals[name]
	m.Open = false
	a.modals[name] = m
}

// SetModalMessage shows message inside a dialog.
func (a *App) SetModalMessage(name, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	m := a.modals[name]
	m.Message = message
	a.modals[name] = m
}

// ResetForm clears a form's inputs.
func (a *App) ResetForm(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resets[name]++
}

// SetTopState switches between the logged-out and logged-in layouts.
// Leaving for init empties every view; entering user-logged loads them.
func (a *App) SetTopState(state string) {
	a.mu.Lock()
	a.state = state
	if state == ui.StateInit {
		a.view = ""
		a.params = nil
	}
	a.mu.Unlock()

	switch state {
	case ui.StateInit:
		a.Accounts.Clear()
		a.Page.Clear()
	case ui.StateUserLogged:
		a.RefreshAll()
	default:
		a.log.Warn().Str("state", state).Msg("Unknown state")
	}
}

// State returns the top-level state.
func (a *App) State() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// View returns the current view and a copy of its parameters.
func (a *App) View() (string, map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view, copyParams(a.params)
}

// Modal returns the state of a dialog.
func (a *App) Modal(name string) ModalState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.modals[name]
}

// Resets returns how many times a form has been reset.
func (a *App) Resets(name string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resets[name]
}

func copyParams(p map[string]string) map[string]string {
	if p == nil {
		return nil
	}
	c := make(map[string]string, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// CurrentUser returns the cached identity.
func (a *App) CurrentUser() (*domain.User, bool) {
	return a.sessions.Cache().Current()
}

// Forget drops the local session and returns to the initial state.
func (a *App) Forget() {
	a.sessions.Cache().Clear()
	a.SetTopState(ui.StateInit)
}
