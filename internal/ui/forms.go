package ui

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/logger"
	"github.com/dvloznov/finance-client/internal/session"
	"github.com/dvloznov/finance-client/internal/transport"
)

// modalOutcome reports a failed submission in the form's modal and returns
// nil, or returns the successful envelope.
func modalOutcome(coord Coordinator, log zerolog.Logger, modal string, err error, env *domain.Envelope) *domain.Envelope {
	if err != nil {
		log.Warn().Err(err).Str("modal", modal).Msg("Submission failed")
		coord.SetModalMessage(modal, err.Error())
		return nil
	}
	if !env.Success {
		coord.SetModalMessage(modal, env.Err().Error())
		return nil
	}
	return env
}

// decodeOutcome turns a raw transport outcome into the pair modalOutcome expects.
func decodeOutcome(err error, body []byte) (*domain.Envelope, error) {
	if err != nil {
		return nil, err
	}
	return domain.ParseEnvelope(body)
}

// CreateAccountForm submits the new account dialog.
type CreateAccountForm struct {
	accounts Resource
	coord    Coordinator
	log      zerolog.Logger
}

// NewCreateAccountForm creates the form handler.
func NewCreateAccountForm(accounts Resource, coord Coordinator, log zerolog.Logger) *CreateAccountForm {
	return &CreateAccountForm{accounts: accounts, coord: coord, log: logger.ForComponent(log, "create_account_form")}
}

// Submit creates the account. The form is reset whatever the outcome.
func (f *CreateAccountForm) Submit(ctx context.Context, data transport.Data) *transport.Handle {
	return f.accounts.Create(ctx, data, func(err error, body []byte) {
		defer f.coord.ResetForm(FormCreateAccount)
		env, err := decodeOutcome(err, body)
		if modalOutcome(f.coord, f.log, ModalCreateAccount, err, env) == nil {
			return
		}
		f.coord.RefreshAll()
		f.coord.CloseModal(ModalCreateAccount)
	})
}

// CreateTransactionForm submits the new income or expense dialog and keeps
// its account selector in sync with the user's accounts.
type CreateTransactionForm struct {
	mu         sync.Mutex
	kind       domain.TransactionType
	selectNode *html.Node
	epoch      uint64

	session      session.Reader
	accounts     Resource
	transactions Resource
	coord        Coordinator
	notify       Notifier
	log          zerolog.Logger
}

// NewCreateTransactionForm binds the form to its account <select> and fills it.
func NewCreateTransactionForm(ctx context.Context, kind domain.TransactionType, accountsSelect *html.Node, sess session.Reader, accounts, transactions Resource, coord Coordinator, notify Notifier, log zerolog.Logger) (*CreateTransactionForm, error) {
	if accountsSelect == nil {
		return nil, ErrNoElement
	}
	if !kind.Valid() {
		return nil, errors.New("unknown transaction type " + string(kind))
	}
	f := &CreateTransactionForm{
		kind:         kind,
		selectNode:   accountsSelect,
		session:      sess,
		accounts:     accounts,
		transactions: transactions,
		coord:        coord,
		notify:       notify,
		log:          logger.ForComponent(log, "create_transaction_form"),
	}
	f.RenderAccountsList(ctx)
	return f, nil
}

// Names returns the form and modal names for the form's kind.
func (f *CreateTransactionForm) Names() (form, modal string) {
	if f.kind == domain.TransactionIncome {
		return FormCreateIncome, ModalNewIncome
	}
	return FormCreateExpense, ModalNewExpense
}

// RenderAccountsList reloads the account options. The options are removed as
// soon as the answer arrives, before it is checked.
func (f *CreateTransactionForm) RenderAccountsList(ctx context.Context) *transport.Handle {
	user, ok := f.session.Current()
	if !ok {
		return nil
	}

	f.mu.Lock()
	f.epoch++
	epoch := f.epoch
	f.mu.Unlock()

	return f.accounts.List(ctx, transport.Data(user.Filter()), func(err error, body []byte) {
		f.mu.Lock()
		if epoch != f.epoch {
			f.mu.Unlock()
			return
		}
		RemoveChildren(f.selectNode)
		f.mu.Unlock()

		env := envelopeOrAlert(f.log, f.notify.Alert, "list accounts", err, body)
		if env == nil {
			return
		}
		var items []domain.Account
		if err := env.DecodeData(&items); err != nil && !errors.Is(err, domain.ErrNoData) {
			f.notify.Alert(err.Error())
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		if epoch != f.epoch {
			return
		}
		for _, item := range items {
			opt := Append(Element("option"), TextNode(item.Name))
			SetAttr(opt, "value", item.ID.String())
			f.selectNode.AppendChild(opt)
		}
	})
}

// Submit creates the transaction. The type field is filled from the form's
// kind when the caller left it out.
func (f *CreateTransactionForm) Submit(ctx context.Context, data transport.Data) *transport.Handle {
	formName, modalName := f.Names()
	item := data.Copy()
	if _, ok := item["type"]; !ok {
		item["type"] = string(f.kind)
	}
	return f.transactions.Create(ctx, item, func(err error, body []byte) {
		env, err := decodeOutcome(err, body)
		if modalOutcome(f.coord, f.log, modalName, err, env) == nil {
			return
		}
		f.coord.RefreshAll()
		f.coord.ResetForm(formName)
		f.coord.CloseModal(modalName)
	})
}

// LoginForm submits the login dialog.
type LoginForm struct {
	sessions *session.Service
	coord    Coordinator
	log      zerolog.Logger
}

// NewLoginForm creates the form handler.
func NewLoginForm(sessions *session.Service, coord Coordinator, log zerolog.Logger) *LoginForm {
	return &LoginForm{sessions: sessions, coord: coord, log: logger.ForComponent(log, "login_form")}
}

// Submit logs in with data; the form is reset whatever the outcome.
func (f *LoginForm) Submit(ctx context.Context, data transport.Data) *transport.Handle {
	return f.sessions.Login(ctx, data, func(err error, env *domain.Envelope) {
		defer f.coord.ResetForm(FormLogin)
		if modalOutcome(f.coord, f.log, ModalLogin, err, env) == nil {
			return
		}
		f.coord.SetTopState(StateUserLogged)
		f.coord.CloseModal(ModalLogin)
	})
}

// RegisterForm submits the registration dialog.
type RegisterForm struct {
	sessions *session.Service
	coord    Coordinator
	log      zerolog.Logger
}

// NewRegisterForm creates the form handler.
func NewRegisterForm(sessions *session.Service, coord Coordinator, log zerolog.Logger) *RegisterForm {
	return &RegisterForm{sessions: sessions, coord: coord, log: logger.ForComponent(log, "register_form")}
}

// Submit registers with data; the form is reset whatever the outcome.
func (f *RegisterForm) Submit(ctx context.Context, data transport.Data) *transport.Handle {
	return f.sessions.Register(ctx, data, func(err error, env *domain.Envelope) {
		defer f.coord.ResetForm(FormRegister)
		if modalOutcome(f.coord, f.log, ModalRegister, err, env) == nil {
			return
		}
		f.coord.SetTopState(StateUserLogged)
		f.coord.CloseModal(ModalRegister)
	})
}
