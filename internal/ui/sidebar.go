package ui

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-client/internal/domain"
	"github.com/dvloznov/finance-client/internal/logger"
	"github.com/dvloznov/finance-client/internal/session"
	"github.com/dvloznov/finance-client/internal/transport"
)

// Sidebar holds the authentication menu actions.
type Sidebar struct {
	sessions *session.Service
	coord    Coordinator
	notify   Notifier
	log      zerolog.Logger
}

// NewSidebar creates the menu actions.
func NewSidebar(sessions *session.Service, coord Coordinator, notify Notifier, log zerolog.Logger) *Sidebar {
	return &Sidebar{
		sessions: sessions,
		coord:    coord,
		notify:   notify,
		log:      logger.ForComponent(log, "sidebar"),
	}
}

// OnLogin opens the login dialog.
func (s *Sidebar) OnLogin() { s.coord.OpenModal(ModalLogin) }

// OnRegister opens the registration dialog.
func (s *Sidebar) OnRegister() { s.coord.OpenModal(ModalRegister) }

// Logout ends the session and returns the application to its initial state.
func (s *Sidebar) Logout(ctx context.Context) *transport.Handle {
	return s.sessions.Logout(ctx, transport.Data{}, func(err error, env *domain.Envelope) {
		if err != nil {
			s.log.Warn().Err(err).Msg("Logout failed")
			s.notify.Alert(err.Error())
			return
		}
		if !env.Success {
			s.notify.Alert(env.Err().Error())
			return
		}
		s.coord.SetTopState(StateInit)
	})
}
