package domain

import (
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes incoming from outgoing money.
type TransactionType string

const (
	TransactionIncome  TransactionType = "INCOME"
	TransactionExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is one of the two known types.
func (t TransactionType) Valid() bool {
	return t == TransactionIncome || t == TransactionExpense
}

// Account is a snapshot of one account as returned by the service.
type Account struct {
	ID   ID              `json:"id"`
	Name string          `json:"name"`
	Sum  decimal.Decimal `json:"sum"`
}

// Transaction is a snapshot of one income or expense.
// CreatedAt is kept in the server's canonical "2006-01-02 15:04:05" form,
// which sorts chronologically as a string.
type Transaction struct {
	ID        ID              `json:"id"`
	AccountID ID              `json:"account_id"`
	Name      string          `json:"name"`
	Sum       decimal.Decimal `json:"sum"`
	Type      TransactionType `json:"type"`
	CreatedAt string          `json:"created_at"`
}

// TimestampLayout is the canonical CreatedAt layout.
const TimestampLayout = "2006-01-02 15:04:05"
