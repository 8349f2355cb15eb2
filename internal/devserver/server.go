// Package devserver is a reference implementation of the finance service
// wire contract, kept in memory. The client packages are tested against it.
package devserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-client/internal/api/middleware"
	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/entity"
)

// SessionCookie carries the session token.
const SessionCookie = "finance_session"

// Messages sent in failed envelopes.
const (
	msgUnauthorized    = "authorization required"
	msgAccountNotFound = "account not found"
	msgTxNotFound      = "transaction not found"
	msgUnknownMethod   = "unknown _method"
)

const maxFormMemory = 1 << 20

type reply struct {
	Success bool         `json:"success"`
	Data    any          `json:"data,omitempty"`
	Error   any          `json:"error,omitempty"`
	User    *domain.User `json:"user,omitempty"`
}

// Server serves the finance API from a Store.
type Server struct {
	store  *Store
	log    zerolog.Logger
	router *mux.Router
}

// New creates a server and registers its routes.
func New(store *Store, log zerolog.Logger) *Server {
	s := &Server{
		store:  store,
		log:    log.With().Str("component", "devserver").Logger(),
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Metrics)

	u := r.PathPrefix("/user").Subrouter()
	u.HandleFunc("/current", s.currentUserHandler).Methods(http.MethodGet)
	u.HandleFunc("/login", s.loginHandler).Methods(http.MethodPost)
	u.HandleFunc("/register", s.registerHandler).Methods(http.MethodPost)
	u.HandleFunc("/logout", s.logoutHandler).Methods(http.MethodPost)

	r.HandleFunc(entity.AccountPath, s.withUser(s.listAccounts)).Methods(http.MethodGet)
	r.HandleFunc(entity.AccountPath+"/{id}", s.withUser(s.getAccount)).Methods(http.MethodGet)
	r.HandleFunc(entity.AccountPath, s.withUser(s.postAccount)).Methods(http.MethodPost)

	r.HandleFunc(entity.TransactionPath, s.withUser(s.listTransactions)).Methods(http.MethodGet)
	r.HandleFunc(entity.TransactionPath+"/{id}", s.withUser(s.getTransaction)).Methods(http.MethodGet)
	r.HandleFunc(entity.TransactionPath, s.withUser(s.postTransaction)).Methods(http.MethodPost)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Handler returns the router wrapped in the standard middleware chain.
func (s *Server) Handler() http.Handler {
	return middleware.Recovery(s.log)(
		middleware.Logger(s.log)(
			middleware.RequestID(
				middleware.ContextLogger(s.log)(
					middleware.CORS(s.router),
				),
			),
		),
	)
}

type userHandler func(w http.ResponseWriter, r *http.Request, user domain.User)

// withUser parses the form and resolves the session. Requests without a
// session get a failed envelope rather than an HTTP error, which is what
// the client expects.
func (s *Server) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseForm(r); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		user, found := s.sessionUser(r)
		if !found {
			fail(w, msgUnauthorized)
			return
		}
		next(w, r, user)
	}
}

func (s *Server) sessionUser(r *http.Request) (domain.User, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return domain.User{}, false
	}
	return s.store.SessionUser(c.Value)
}

// parseForm accepts multipart bodies, which is what the client sends, and
// falls back to urlencoded ones.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxFormMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

func ok(w http.ResponseWriter, data any) {
	middleware.WriteJSON(w, http.StatusOK, reply{Success: true, Data: data})
}

func fail(w http.ResponseWriter, message any) {
	middleware.WriteJSON(w, http.StatusOK, reply{Success: false, Error: message})
}
