package devserver

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-client/internal/api/middleware"
	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/entity"
	"github.com/dvloznov/finance-client/internal/logger"
)

// currentUserHandler handles GET /user/current
func (s *Server) currentUserHandler(w http.ResponseWriter, r *http.Request) {
	user, found := s.sessionUser(r)
	if !found {
		fail(w, msgUnauthorized)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, reply{Success: true, User: &user})
}

// loginHandler handles POST /user/login
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.store.Login(r.FormValue("email"), r.FormValue("password"))
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Info().
			Str("email", r.FormValue("email")).
			Msg("Login refused")
		fail(w, err.Error())
		return
	}
	s.startSession(w, user)
}

// registerHandler handles POST /user/register. A new user is logged in
// straight away.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := s.store.Register(r.FormValue("name"), r.FormValue("email"), r.FormValue("password"))
	switch {
	case errors.Is(err, ErrEmailTaken):
		fail(w, map[string][]string{"email": {err.Error()}})
		return
	case err != nil:
		fail(w, err.Error())
		return
	}
	log := logger.FromContext(r.Context())
	log.Info().Str("user_id", user.ID.String()).Msg("User registered")
	s.startSession(w, user)
}

func (s *Server) startSession(w http.ResponseWriter, user domain.User) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    s.store.NewSession(user.ID),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.WriteJSON(w, http.StatusOK, reply{Success: true, User: &user})
}

// logoutHandler handles POST /user/logout
func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		fail(w, msgUnauthorized)
		return
	}
	if _, found := s.store.SessionUser(c.Value); !found {
		fail(w, msgUnauthorized)
		return
	}
	s.store.EndSession(c.Value)
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	ok(w, nil)
}

// listAccounts handles GET /account. Filter parameters are accepted and
// ignored; the session decides whose accounts are listed.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request, user domain.User) {
	ok(w, s.store.ListAccounts(user.ID))
}

// getAccount handles GET /account/{id}
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request, user domain.User) {
	account, err := s.store.GetAccount(user.ID, domain.ID(mux.Vars(r)["id"]))
	if err != nil {
		fail(w, msgAccountNotFound)
		return
	}
	ok(w, account)
}

// postAccount handles POST /account, dispatching on _method.
func (s *Server) postAccount(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.FormValue(entity.MethodField) {
	case entity.MethodPut:
		account, err := s.store.CreateAccount(user.ID, r.FormValue("name"))
		if err != nil {
			fail(w, map[string][]string{"name": {err.Error()}})
			return
		}
		log := logger.FromContext(r.Context())
		log.Info().
			Str("account_id", account.ID.String()).
			Msg("Account created")
		ok(w, account)
	case entity.MethodDelete:
		if err := s.store.RemoveAccount(user.ID, domain.ID(r.FormValue("id"))); err != nil {
			fail(w, msgAccountNotFound)
			return
		}
		ok(w, nil)
	default:
		middleware.WriteError(w, http.StatusBadRequest, msgUnknownMethod)
	}
}

// listTransactions handles GET /transaction?account_id=...
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request, user domain.User) {
	list, err := s.store.ListTransactions(user.ID, domain.ID(r.FormValue("account_id")))
	if err != nil {
		fail(w, msgAccountNotFound)
		return
	}
	ok(w, list)
}

// getTransaction handles GET /transaction/{id}
func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request, user domain.User) {
	t, err := s.store.GetTransaction(user.ID, domain.ID(mux.Vars(r)["id"]))
	if err != nil {
		fail(w, msgTxNotFound)
		return
	}
	ok(w, t)
}

// postTransaction handles POST /transaction, dispatching on _method.
func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request, user domain.User) {
	switch r.FormValue(entity.MethodField) {
	case entity.MethodPut:
		sum, err := decimal.NewFromString(r.FormValue("sum"))
		if err != nil {
			fail(w, map[string][]string{"sum": {"sum must be a number"}})
			return
		}
		t, err := s.store.CreateTransaction(user.ID, domain.Transaction{
			AccountID: domain.ID(r.FormValue("account_id")),
			Name:      r.FormValue("name"),
			Sum:       sum,
			Type:      domain.TransactionType(r.FormValue("type")),
		})
		switch {
		case errors.Is(err, ErrNotFound):
			fail(w, msgAccountNotFound)
			return
		case err != nil:
			fail(w, err.Error())
			return
		}
		log := logger.FromContext(r.Context())
		log.Info().
			Str("transaction_id", t.ID.String()).
			Str("account_id", t.AccountID.String()).
			Msg("Transaction created")
		ok(w, t)
	case entity.MethodDelete:
		if err := s.store.RemoveTransaction(user.ID, domain.ID(r.FormValue("id"))); err != nil {
			fail(w, msgTxNotFound)
			return
		}
		ok(w, nil)
	default:
		middleware.WriteError(w, http.StatusBadRequest, msgUnknownMethod)
	}
}
