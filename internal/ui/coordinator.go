package ui

import (
	"context"

	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/transport"
)

// Coordinator is the page controller the components notify. Calls are
// one-way; components never look at what the coordinator does with them.
type Coordinator interface {
	RefreshAll()
	Navigate(view string, params map[string]string)
	OpenModal(name string)
	CloseModal(name string)
	SetModalMessage(name, message string)
	ResetForm(name string)
	SetTopState(state string)
}

// Notifier is the interrupt-style user surface.
type Notifier interface {
	Alert(message string)
	// Confirm blocks until the user answers.
	Confirm(message string) bool
}

// Resource is the CRUD protocol as the components use it.
type Resource interface {
	List(ctx context.Context, filter transport.Data, cb transport.Callback) *transport.Handle
	Create(ctx context.Context, item transport.Data, cb transport.Callback) *transport.Handle
	Get(ctx context.Context, id domain.ID, filter transport.Data, cb transport.Callback) *transport.Handle
	Remove(ctx context.Context, id domain.ID, filter transport.Data, cb transport.Callback) *transport.Handle
}

// Views, modals, forms and top-level states known to the application.
const (
	ViewTransactions = "transactions"

	ModalCreateAccount = "createAccount"
	ModalNewIncome     = "newIncome"
	ModalNewExpense    = "newExpense"
	ModalLogin         = "login"
	ModalRegister      = "register"

	FormCreateAccount = "createAccount"
	FormCreateIncome  = "createIncome"
	FormCreateExpense = "createExpense"
	FormLogin         = "login"
	FormRegister      = "register"

	StateInit       = "init"
	StateUserLogged = "user-logged"
)

// User-facing texts.
const (
	TitlePlaceholder         = "Название счёта"
	ConfirmRemoveAccount     = "Вы действительно хотите удалить счёт?"
	ConfirmRemoveTransaction = "Вы действительно хотите удалить эту транзакцию?"
	Currency                 = "₽"
)
