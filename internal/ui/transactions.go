package ui

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/logger"
	"github.com/dvloznov/finance-client/internal/transport"
)

// Options is the filter a page was rendered with, e.g. {"account_id": "3"}.
type Options map[string]string

// AccountID returns the account the options are scoped to.
func (o Options) AccountID() domain.ID {
	return domain.ID(o["account_id"])
}

// Data converts the options into request parameters.
func (o Options) Data() transport.Data {
	d := make(transport.Data, len(o))
	for k, v := range o {
		d[k] = v
	}
	return d
}

func (o Options) clone() Options {
	if o == nil {
		return nil
	}
	c := make(Options, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}

// TransactionsPage shows one account: its name as the title and its
// transactions, most recent first.
//
// The title and the list are fetched independently and each response only
// touches its own region. Responses issued before the latest Render or Clear
// are dropped.
type TransactionsPage struct {
	mu          sync.Mutex
	content     *html.Node
	title       *html.Node
	lastOptions Options
	epoch       uint64

	accounts     Resource
	transactions Resource
	coord        Coordinator
	notify       Notifier
	log          zerolog.Logger
}

// NewTransactionsPage binds the page to its content and title nodes.
func NewTransactionsPage(content, title *html.Node, accounts, transactions Resource, coord Coordinator, notify Notifier, log zerolog.Logger) (*TransactionsPage, error) {
	if content == nil || title == nil {
		return nil, ErrNoElement
	}
	return &TransactionsPage{
		content:      content,
		title:        title,
		accounts:     accounts,
		transactions: transactions,
		coord:        coord,
		notify:       notify,
		log:          logger.ForComponent(log, "transactions"),
	}, nil
}

// Render remembers opts and loads the title and the transactions. It does
// nothing for empty options. The returned handles are nil in that case.
func (p *TransactionsPage) Render(ctx context.Context, opts Options) (title, list *transport.Handle) {
	if len(opts) == 0 {
		return nil, nil
	}

	p.mu.Lock()
	p.lastOptions = opts.clone()
	p.epoch++
	epoch := p.epoch
	p.mu.Unlock()

	title = p.accounts.Get(ctx, opts.AccountID(), opts.Data(), func(err error, body []byte) {
		if !p.current(epoch) {
			p.log.Debug().Uint64("epoch", epoch).Msg("Dropping stale title")
			return
		}
		env := envelopeOrAlert(p.log, p.notify.Alert, "get account", err, body)
		if env == nil {
			return
		}
		var account domain.Account
		if err := env.DecodeData(&account); err != nil {
			p.log.Warn().Err(err).Msg("Unreadable account")
			p.notify.Alert(err.Error())
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if epoch == p.epoch {
			SetText(p.title, account.Name)
		}
	})

	list = p.transactions.List(ctx, opts.Data(), func(err error, body []byte) {
		if !p.current(epoch) {
			p.log.Debug().Uint64("epoch", epoch).Msg("Dropping stale transaction list")
			return
		}
		env := envelopeOrAlert(p.log, p.notify.Alert, "list transactions", err, body)
		if env == nil {
			return
		}
		var items []domain.Transaction
		if err := env.DecodeData(&items); err != nil && !errors.Is(err, domain.ErrNoData) {
			p.log.Warn().Err(err).Msg("Unreadable transaction list")
			p.notify.Alert(err.Error())
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if epoch == p.epoch {
			p.renderTransactions(items)
		}
	})

	return title, list
}

func (p *TransactionsPage) current(epoch uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return epoch == p.epoch
}

// Update renders the page again with the last options.
func (p *TransactionsPage) Update(ctx context.Context) (title, list *transport.Handle) {
	return p.Render(ctx, p.LastOptions())
}

// LastOptions returns a copy of the options of the last Render, nil after Clear.
func (p *TransactionsPage) LastOptions() Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastOptions.clone()
}

// Clear empties the page, restores the placeholder title and forgets the
// last options. Outstanding responses are dropped.
func (p *TransactionsPage) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.epoch++
	p.renderTransactions(nil)
	SetText(p.title, TitlePlaceholder)
	p.lastOptions = nil
}

// Title returns the displayed title.
func (p *TransactionsPage) Title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return TextContent(p.title)
}

// RemoveTransaction asks for confirmation and deletes the transaction. On
// success the whole application is refreshed rather than the row removed.
// It returns nil when the user declines.
func (p *TransactionsPage) RemoveTransaction(ctx context.Context, id domain.ID) *transport.Handle {
	if !p.notify.Confirm(ConfirmRemoveTransaction) {
		return nil
	}
	return p.transactions.Remove(ctx, id, transport.Data{}, func(err error, body []byte) {
		if env := envelopeOrAlert(p.log, p.notify.Alert, "remove transaction", err, body); env == nil {
			return
		}
		p.log.Info().Str("transaction_id", id.String()).Msg("Transaction removed")
		p.coord.RefreshAll()
	})
}

// RemoveAccount asks for confirmation and deletes the account the page is
// showing. On success the page is cleared before the application refresh.
// It returns nil when nothing is shown or the user declines.
func (p *TransactionsPage) RemoveAccount(ctx context.Context) *transport.Handle {
	opts := p.LastOptions()
	if len(opts) == 0 {
		return nil
	}
	if !p.notify.Confirm(ConfirmRemoveAccount) {
		return nil
	}
	id := opts.AccountID()
	return p.accounts.Remove(ctx, id, opts.Data(), func(err error, body []byte) {
		if env := envelopeOrAlert(p.log, p.notify.Alert, "remove account", err, body); env == nil {
			return
		}
		p.log.Info().Str("account_id", id.String()).Msg("Account removed")
		p.Clear()
		p.coord.RefreshAll()
	})
}

// renderTransactions rebuilds the content from items. Items are sorted by
// CreatedAt as strings, ascending, then reversed. Callers hold p.mu.
func (p *TransactionsPage) renderTransactions(items []domain.Transaction) {
	sorted := make([]domain.Transaction, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt < sorted[j].CreatedAt
	})
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}

	RemoveChildren(p.content)
	for _, item := range sorted {
		p.content.AppendChild(TransactionElement(item))
	}
}

// TransactionElement builds the row for one transaction. Rows of an unknown
// type are left empty.
func TransactionElement(item domain.Transaction) *html.Node {
	row := Element("div", "transaction", "row")
	switch item.Type {
	case domain.TransactionExpense:
		AddClass(row, "transaction_expense")
	case domain.TransactionIncome:
		AddClass(row, "transaction_income")
	default:
		return row
	}

	details := Append(Element("div", "col-md-7", "transaction__details"),
		Append(Element("div", "transaction__icon"), Element("span", "fa", "fa-money", "fa-2x")),
		Append(Element("div", "transaction__info"),
			Append(Element("h4", "transaction__title"), TextNode(item.Name)),
			Append(Element("div", "transaction__date"), TextNode(FormatDate(item.CreatedAt))),
		),
	)

	sum := Append(Element("div", "col-md-3"),
		Append(Element("div", "transaction__summ"),
			TextNode(item.Sum.String()),
			Append(Element("span", "currency"), TextNode(Currency)),
		),
	)

	remove := Element("button", "btn", "btn-danger", "transaction__remove")
	SetAttr(remove, "data-id", item.ID.String())
	Append(remove, Element("i", "fa", "fa-trash"))
	controls := Append(Element("div", "col-md-2", "transaction__controls"), remove)

	return Append(row, details, sum, controls)
}
