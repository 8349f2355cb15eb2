package devserver

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-client/internal/domain"
)

func TestStore_RegisterAndLogin(t *testing.T) {
	s := NewStore(0)

	u, err := s.Register("Ann", " Ann@Example.com ", "secret")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "ann@example.com" {
		t.Errorf("email not normalized: %q", u.Email)
	}

	if _, err := s.Register("Ann", "ann@example.com", "other"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("second Register err = %v, want ErrEmailTaken", err)
	}

	got, err := s.Login("ANN@example.com", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if diff := cmp.Diff(u, got); diff != "" {
		t.Errorf("login user mismatch (-want +got):\n%s", diff)
	}

	for _, tc := range []struct{ email, password string }{
		{"ann@example.com", "wrong"},
		{"bob@example.com", "secret"},
	} {
		if _, err := s.Login(tc.email, tc.password); !errors.Is(err, ErrBadCredentials) {
			t.Errorf("Login(%q, %q) err = %v, want ErrBadCredentials", tc.email, tc.password, err)
		}
	}
}

func TestStore_RegisterValidation(t *testing.T) {
	s := NewStore(0)
	if _, err := s.Register("Ann", "", "secret"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestStore_Sessions(t *testing.T) {
	s := NewStore(0)
	u, _ := s.Register("Ann", "ann@example.com", "secret")

	token := s.NewSession(u.ID)
	if got, ok := s.SessionUser(token); !ok || got.ID != u.ID {
		t.Fatalf("SessionUser = %v, %v", got, ok)
	}
	s.EndSession(token)
	if _, ok := s.SessionUser(token); ok {
		t.Error("session survived EndSession")
	}
}

func TestStore_AccountSumsFollowTransactions(t *testing.T) {
	s := NewStore(0)
	s.now = func() time.Time { return time.Date(2019, 3, 10, 3, 20, 41, 0, time.UTC) }
	ann, _ := s.Register("Ann", "ann@example.com", "secret")

	acc, err := s.CreateAccount(ann.ID, "Cash")
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if !acc.Sum.IsZero() {
		t.Errorf("new account sum = %s", acc.Sum)
	}

	for _, tx := range []domain.Transaction{
		{AccountID: acc.ID, Name: "Salary", Sum: decimal.RequireFromString("1000.50"), Type: domain.TransactionIncome},
		{AccountID: acc.ID, Name: "Coffee", Sum: decimal.RequireFromString("120.25"), Type: domain.TransactionExpense},
	} {
		created, err := s.CreateTransaction(ann.ID, tx)
		if err != nil {
			t.Fatalf("CreateTransaction(%s): %v", tx.Name, err)
		}
		if created.CreatedAt != "2019-03-10 03:20:41" {
			t.Errorf("CreatedAt = %q", created.CreatedAt)
		}
	}

	got, err := s.GetAccount(ann.ID, acc.ID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if want := decimal.RequireFromString("880.25"); !got.Sum.Equal(want) {
		t.Errorf("sum = %s, want %s", got.Sum, want)
	}
}

func TestStore_CreateTransactionValidation(t *testing.T) {
	s := NewStore(0)
	ann, _ := s.Register("Ann", "ann@example.com", "secret")
	acc, _ := s.CreateAccount(ann.ID, "Cash")

	tests := []struct {
		name string
		tx   domain.Transaction
		want error
	}{
		{"unknown type", domain.Transaction{AccountID: acc.ID, Name: "x", Sum: decimal.NewFromInt(1), Type: "GIFT"}, ErrInvalidInput},
		{"empty name", domain.Transaction{AccountID: acc.ID, Sum: decimal.NewFromInt(1), Type: domain.TransactionIncome}, ErrInvalidInput},
		{"zero sum", domain.Transaction{AccountID: acc.ID, Name: "x", Type: domain.TransactionIncome}, ErrInvalidInput},
		{"unknown account", domain.Transaction{AccountID: "nope", Name: "x", Sum: decimal.NewFromInt(1), Type: domain.TransactionIncome}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.CreateTransaction(ann.ID, tt.tx); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestStore_AccountsAreScopedToOwner(t *testing.T) {
	s := NewStore(0)
	ann, _ := s.Register("Ann", "ann@example.com", "secret")
	bob, _ := s.Register("Bob", "bob@example.com", "secret")
	acc, _ := s.CreateAccount(ann.ID, "Cash")
	tx, _ := s.CreateTransaction(ann.ID, domain.Transaction{
		AccountID: acc.ID, Name: "Salary", Sum: decimal.NewFromInt(5), Type: domain.TransactionIncome,
	})

	if got := s.ListAccounts(bob.ID); len(got) != 0 {
		t.Errorf("bob sees %d accounts", len(got))
	}
	if _, err := s.GetAccount(bob.ID, acc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAccount err = %v", err)
	}
	if _, err := s.GetTransaction(bob.ID, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTransaction err = %v", err)
	}
	if err := s.RemoveTransaction(bob.ID, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveTransaction err = %v", err)
	}
	if err := s.RemoveAccount(bob.ID, acc.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("RemoveAccount err = %v", err)
	}
}

func TestStore_RemoveAccountDropsTransactions(t *testing.T) {
	s := NewStore(0)
	ann, _ := s.Register("Ann", "ann@example.com", "secret")
	cash, _ := s.CreateAccount(ann.ID, "Cash")
	card, _ := s.CreateAccount(ann.ID, "Card")
	tx, _ := s.CreateTransaction(ann.ID, domain.Transaction{
		AccountID: cash.ID, Name: "Salary", Sum: decimal.NewFromInt(5), Type: domain.TransactionIncome,
	})

	if err := s.RemoveAccount(ann.ID, cash.ID); err != nil {
		t.Fatalf("RemoveAccount: %v", err)
	}
	if _, err := s.GetTransaction(ann.ID, tx.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("transaction survived its account: %v", err)
	}

	var names []string
	for _, a := range s.ListAccounts(ann.ID) {
		names = append(names, a.Name)
	}
	if diff := cmp.Diff([]string{card.Name}, names); diff != "" {
		t.Errorf("accounts mismatch (-want +got):\n%s", diff)
	}
}
