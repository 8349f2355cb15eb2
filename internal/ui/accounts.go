package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/logger"
	"github.com/dvloznov/finance-client/internal/session"
	"github.com/dvloznov/finance-client/internal/transport"
)

// ErrNoElement is returned when a component is built without its container.
var ErrNoElement = errors.New("widget element is missing")

// AccountsWidget renders the user's accounts in the sidebar.
//
// Every successful update replaces the whole list. Failed updates leave the
// previous list in place. Responses to an update that has been superseded
// by a newer one are dropped.
type AccountsWidget struct {
	mu       sync.Mutex
	panel    *html.Node
	epoch    uint64
	selected domain.ID

	session  session.Reader
	accounts Resource
	coord    Coordinator
	notify   Notifier
	log      zerolog.Logger
}

// NewAccountsWidget binds the widget to panel and performs the first update.
func NewAccountsWidget(ctx context.Context, panel *html.Node, sess session.Reader, accounts Resource, coord Coordinator, notify Notifier, log zerolog.Logger) (*AccountsWidget, error) {
	if panel == nil {
		return nil, ErrNoElement
	}
	w := &AccountsWidget{
		panel:    panel,
		session:  sess,
		accounts: accounts,
		coord:    coord,
		notify:   notify,
		log:      logger.ForComponent(log, "accounts"),
	}
	w.Update(ctx)
	return w, nil
}

// Update reloads the list for the current user. It does nothing, and
// returns nil, when nobody is logged in.
func (w *AccountsWidget) Update(ctx context.Context) *transport.Handle {
	user, ok := w.session.Current()
	if !ok {
		return nil
	}

	w.mu.Lock()
	w.epoch++
	epoch := w.epoch
	w.mu.Unlock()

	return w.accounts.List(ctx, transport.Data(user.Filter()), func(err error, body []byte) {
		if !w.current(epoch) {
			w.log.Debug().Uint64("epoch", epoch).Msg("Dropping stale account list")
			return
		}
		env := envelopeOrAlert(w.log, w.notify.Alert, "list accounts", err, body)
		if env == nil {
			return
		}
		var items []domain.Account
		if err := env.DecodeData(&items); err != nil && !errors.Is(err, domain.ErrNoData) {
			w.log.Warn().Err(err).Msg("Unreadable account list")
			w.notify.Alert(err.Error())
			return
		}

		w.mu.Lock()
		defer w.mu.Unlock()
		if epoch != w.epoch {
			return
		}
		w.clear()
		for _, item := range items {
			w.renderItem(item)
		}
		w.log.Debug().Int("count", len(items)).Msg("Accounts rendered")
	})
}

func (w *AccountsWidget) current(epoch uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return epoch == w.epoch
}

// OnCreateAccount opens the new account dialog.
func (w *AccountsWidget) OnCreateAccount() {
	w.coord.OpenModal(ModalCreateAccount)
}

// Select marks the account as active and asks the coordinator to show its
// transactions. It reports false when no such account is rendered.
func (w *AccountsWidget) Select(id domain.ID) bool {
	w.mu.Lock()
	node := w.find(id)
	if node == nil {
		w.mu.Unlock()
		return false
	}
	for _, item := range Children(w.panel, "account") {
		RemoveClass(item, "active")
	}
	AddClass(node, "active")
	w.selected = id
	w.mu.Unlock()

	w.coord.Navigate(ViewTransactions, map[string]string{"account_id": id.String()})
	return true
}

// Active returns the id of the highlighted account, if any.
func (w *AccountsWidget) Active() (domain.ID, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, item := range Children(w.panel, "account") {
		if HasClass(item, "active") {
			return domain.ID(DataID(item)), true
		}
	}
	return "", false
}

// Clear removes every rendered account.
func (w *AccountsWidget) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.epoch++
	w.selected = ""
	w.clear()
}

func (w *AccountsWidget) clear() {
	for _, item := range Children(w.panel, "account") {
		w.panel.RemoveChild(item)
	}
}

func (w *AccountsWidget) find(id domain.ID) *html.Node {
	for _, item := range Children(w.panel, "account") {
		if DataID(item) == id.String() {
			return item
		}
	}
	return nil
}

func (w *AccountsWidget) renderItem(item domain.Account) {
	node := AccountElement(item)
	if item.ID != "" && item.ID == w.selected {
		AddClass(node, "active")
	}
	w.panel.AppendChild(node)
}

// AccountElement builds the sidebar entry for one account.
func AccountElement(item domain.Account) *html.Node {
	li := Element("li", "account")
	SetAttr(li, "data-id", item.ID.String())

	a := Element("a")
	SetAttr(a, "href", "#")
	Append(a,
		Append(Element("span"), TextNode(item.Name)),
		TextNode(" / "),
		Append(Element("span"), TextNode(fmt.Sprintf("%s %s", item.Sum.String(), Currency))),
	)
	return Append(li, a)
}
