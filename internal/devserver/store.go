package devserver

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/dvloznov/finance-client/internal/domain"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrEmailTaken     = errors.New("email is already registered")
	ErrBadCredentials = errors.New("wrong email or password")
	ErrInvalidInput   = errors.New("invalid input")
)

type userRecord struct {
	user         domain.User
	passwordHash []byte
}

type accountRecord struct {
	id     domain.ID
	userID domain.ID
	name   string
}

// Store is an in-memory backend for the dev server. It is safe for
// concurrent use; data is lost on restart.
type Store struct {
	mu           sync.RWMutex
	users        map[domain.ID]*userRecord
	byEmail      map[string]domain.ID
	sessions     map[string]domain.ID
	accounts     map[domain.ID]*accountRecord
	accountOrder []domain.ID
	transactions map[domain.ID]domain.Transaction
	hashCost     int
	now          func() time.Time
}

// NewStore creates an empty store. hashCost is the bcrypt cost for passwords;
// values below bcrypt.MinCost use the minimum.
func NewStore(hashCost int) *Store {
	if hashCost < bcrypt.MinCost {
		hashCost = bcrypt.MinCost
	}
	return &Store{
		users:        make(map[domain.ID]*userRecord),
		byEmail:      make(map[string]domain.ID),
		sessions:     make(map[string]domain.ID),
		accounts:     make(map[domain.ID]*accountRecord),
		transactions: make(map[domain.ID]domain.Transaction),
		hashCost:     hashCost,
		now:          time.Now,
	}
}

func newID() domain.ID {
	return domain.ID(uuid.New().String())
}

// Register creates a user.
func (s *Store) Register(name, email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return domain.User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byEmail[email]; taken {
		return domain.User{}, ErrEmailTaken
	}
	u := domain.User{ID: newID(), Name: name, Email: email}
	s.users[u.ID] = &userRecord{user: u, passwordHash: hash}
	s.byEmail[email] = u.ID
	return u, nil
}

// Login checks credentials.
func (s *Store) Login(email, password string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	id, ok := s.byEmail[email]
	var rec *userRecord
	if ok {
		rec = s.users[id]
	}
	s.mu.RUnlock()

	if rec == nil {
		return domain.User{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(password)); err != nil {
		return domain.User{}, ErrBadCredentials
	}
	return rec.user, nil
}

// NewSession issues a session token for userID.
func (s *Store) NewSession(userID domain.ID) string {
	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = userID
	s.mu.Unlock()
	return token
}

// SessionUser resolves a session token.
func (s *Store) SessionUser(token string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.sessions[token]
	if !ok {
		return domain.User{}, false
	}
	rec, ok := s.users[id]
	if !ok {
		return domain.User{}, false
	}
	return rec.user, true
}

// EndSession forgets token.
func (s *Store) EndSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// ListAccounts returns userID's accounts in creation order.
func (s *Store) ListAccounts(userID domain.ID) []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Account{}
	for _, id := range s.accountOrder {
		rec := s.accounts[id]
		if rec.userID == userID {
			out = append(out, s.accountView(rec))
		}
	}
	return out
}

// GetAccount returns one of userID's accounts.
func (s *Store) GetAccount(userID, id domain.ID) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.accounts[id]
	if !ok || rec.userID != userID {
		return domain.Account{}, ErrNotFound
	}
	return s.accountView(rec), nil
}

// accountView derives the balance from the account's transactions.
// Callers hold s.mu.
func (s *Store) accountView(rec *accountRecord) domain.Account {
	sum := decimal.Zero
	for _, t := range s.transactions {
		if t.AccountID != rec.id {
			continue
		}
		if t.Type == domain.TransactionIncome {
			sum = sum.Add(t.Sum)
		} else {
			sum = sum.Sub(t.Sum)
		}
	}
	return domain.Account{ID: rec.id, Name: rec.name, Sum: sum}
}

// CreateAccount adds an account for userID.
func (s *Store) CreateAccount(userID domain.ID, name string) (domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Account{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &accountRecord{id: newID(), userID: userID, name: name}
	s.accounts[rec.id] = rec
	s.accountOrder = append(s.accountOrder, rec.id)
	return s.accountView(rec), nil
}

// RemoveAccount deletes the account and its transactions.
func (s *Store) RemoveAccount(userID, id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.accounts[id]
	if !ok || rec.userID != userID {
		return ErrNotFound
	}
	delete(s.accounts, id)
	for i, v := range s.accountOrder {
		if v == id {
			s.accountOrder = append(s.accountOrder[:i], s.accountOrder[i+1:]...)
			break
		}
	}
	for tid, t := range s.transactions {
		if t.AccountID == id {
			delete(s.transactions, tid)
		}
	}
	return nil
}

// ListTransactions returns the transactions of one of userID's accounts.
func (s *Store) ListTransactions(userID, accountID domain.ID) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.accounts[accountID]
	if !ok || rec.userID != userID {
		return nil, ErrNotFound
	}
	out := []domain.Transaction{}
	for _, t := range s.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

// CreateTransaction records an income or expense on one of userID's accounts.
func (s *Store) CreateTransaction(userID domain.ID, t domain.Transaction) (domain.Transaction, error) {
	if !t.Type.Valid() {
		return domain.Transaction{}, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, t.Type)
	}
	if strings.TrimSpace(t.Name) == "" {
		return domain.Transaction{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !t.Sum.IsPositive() {
		return domain.Transaction{}, fmt.Errorf("%w: sum must be positive", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.accounts[t.AccountID]
	if !ok || rec.userID != userID {
		return domain.Transaction{}, ErrNotFound
	}
	t.ID = newID()
	t.CreatedAt = s.now().Format(domain.TimestampLayout)
	s.transactions[t.ID] = t
	return t, nil
}

// RemoveTransaction deletes a transaction on one of userID's accounts.
func (s *Store) RemoveTransaction(userID, id domain.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return ErrNotFound
	}
	if rec, ok := s.accounts[t.AccountID]; !ok || rec.userID != userID {
		return ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

// GetTransaction returns one transaction on one of userID's accounts.
func (s *Store) GetTransaction(userID, id domain.ID) (domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok {
		return domain.Transaction{}, ErrNotFound
	}
	if rec, ok := s.accounts[t.AccountID]; !ok || rec.userID != userID {
		return domain.Transaction{}, ErrNotFound
	}
	return t, nil
}
