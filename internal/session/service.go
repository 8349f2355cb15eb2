package session

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/entity"
	"github.com/dvloznov/finance-client/internal/transport"
)

// UserPath is the base path of the identity endpoints.
const UserPath = "/user"

// Callback receives the outcome of a session flow after the cache has been
// updated: a transport error, or the decoded envelope.
type Callback func(err error, env *domain.Envelope)

// Service runs the identity flows against the service and keeps the cache
// consistent with their outcome.
type Service struct {
	exec    entity.Executor
	baseURL string
	cache   *Cache
	log     zerolog.Logger
}

// NewService creates the identity flows over exec.
func NewService(exec entity.Executor, baseURL string, cache *Cache, log zerolog.Logger) *Service {
	return &Service{
		exec:    exec,
		baseURL: strings.TrimRight(baseURL, "/"),
		cache:   cache,
		log:     log,
	}
}

// Cache returns the underlying cache.
func (s *Service) Cache() *Cache { return s.cache }

// Fetch asks the service who is logged in.
func (s *Service) Fetch(ctx context.Context, data transport.Data, cb Callback) *transport.Handle {
	return s.call(ctx, "/current", transport.MethodGet, data, s.storeOrClear, cb)
}

// Login authenticates with the credentials in data.
func (s *Service) Login(ctx context.Context, data transport.Data, cb Callback) *transport.Handle {
	return s.call(ctx, "/login", transport.MethodPost, data, s.storeOrClear, cb)
}

// Register creates an account and logs it in.
func (s *Service) Register(ctx context.Context, data transport.Data, cb Callback) *transport.Handle {
	return s.call(ctx, "/register", transport.MethodPost, data, s.storeOrClear, cb)
}

// Logout ends the session. A refused logout leaves the cached user in place:
// the server session is still valid.
func (s *Service) Logout(ctx context.Context, data transport.Data, cb Callback) *transport.Handle {
	return s.call(ctx, "/logout", transport.MethodPost, data, s.clearOnSuccess, cb)
}

func (s *Service) storeOrClear(env *domain.Envelope) {
	if env.Success {
		s.cache.SetCurrent(env.User)
		return
	}
	s.cache.UnsetCurrent()
}

func (s *Service) clearOnSuccess(env *domain.Envelope) {
	if env.Success {
		s.cache.UnsetCurrent()
		return
	}
	s.log.Warn().Str("error", env.ErrorMessage()).Msg("Logout refused, keeping session")
}

func (s *Service) call(ctx context.Context, endpoint string, method transport.Method, data transport.Data, apply func(*domain.Envelope), cb Callback) *transport.Handle {
	if cb == nil {
		cb = func(error, *domain.Envelope) {}
	}
	req := transport.Request{
		URL:          s.baseURL + UserPath + endpoint,
		Data:         data.Copy(),
		Method:       method,
		ResponseType: transport.ResponseTypeJSON,
	}
	return s.exec.Execute(ctx, req, func(err error, body []byte) {
		if err != nil {
			s.log.Warn().Err(err).Str("endpoint", endpoint).Msg("Session request failed")
			cb(err, nil)
			return
		}
		env, err := domain.ParseEnvelope(body)
		if err != nil {
			s.log.Warn().Err(err).Str("endpoint", endpoint).Msg("Malformed session response")
			cb(err, nil)
			return
		}
		apply(env)
		cb(nil, env)
	})
}
