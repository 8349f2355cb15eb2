package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dvloznov/finance-client/internal/app"
	"github.com/dvloznov/finance-client/internal/config"
	"github.com/dvloznov/finance-client/internal/entity"
	"github.com/dvloznov/finance-client/internal/logger"
	"github.com/dvloznov/finance-client/internal/loop"
	"github.com/dvloznov/finance-client/internal/session"
	"github.com/dvloznov/finance-client/internal/transport"
	"github.com/dvloznov/finance-client/internal/ui"
)

const gcsSessionPrefix = "finance-client"

// env is everything one CLI invocation runs on.
type env struct {
	ctx    context.Context
	cfg    *config.Config
	store  session.Store
	loop   *loop.Loop
	client *transport.Client
	term   *terminal
	app    *app.App
	out    io.Writer
	html   bool

	// keepCookies is cleared when the stored cookies must not be rewritten.
	keepCookies bool
}

type commonFlags struct {
	baseURL string
	yes     bool
	html    bool
}

func setup(ctx context.Context, flags commonFlags) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flags.baseURL != "" {
		cfg.BaseURL = flags.baseURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	ctx = logger.WithContext(ctx, logger.NewWithLevel(cfg.LogLevel, cfg.LogFormat))
	log := logger.FromContext(ctx)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	l := loop.New(64)
	l.Start(ctx)

	client, err := transport.NewClient(
		transport.WithTimeout(cfg.Timeout),
		transport.WithDispatcher(l),
		transport.WithLogger(logger.ForComponent(log, "transport")),
	)
	if err != nil {
		return nil, err
	}
	if err := session.LoadCookies(ctx, store, client.Jar(), cfg.BaseURL); err != nil {
		log.Warn().Err(err).Msg("Ignoring stored cookies")
	}

	cache := session.NewCache(store, logger.ForComponent(log, "session"))
	cache.Init()

	term := newTerminal(os.Stdin, os.Stderr, flags.yes)
	a, err := app.New(ctx, app.Deps{
		Sessions:     session.NewService(client, cfg.BaseURL, cache, log),
		Accounts:     entity.NewAccounts(client, cfg.BaseURL),
		Transactions: entity.NewTransactions(client, cfg.BaseURL),
		Notifier:     term,
		Log:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("build app: %w", err)
	}

	return &env{
		ctx:    ctx,
		cfg:    cfg,
		store:  store,
		loop:   l,
		client: client,
		term:   term,
		app:    a,
		out:    os.Stdout,
		html:   flags.html,

		keepCookies: true,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil
	case config.BackendGCS:
		return session.NewGCSStore(ctx, cfg.SessionBucket, gcsSessionPrefix)
	default:
		return session.NewFileStore(cfg.SessionDir)
	}
}

// wait blocks until every request issued so far, and every request those
// issued in turn, has completed.
func (e *env) wait(handles ...*transport.Handle) error {
	e.app.Track(handles...)
	ctx, cancel := context.WithTimeout(e.ctx, e.cfg.Timeout*4)
	defer cancel()
	return e.app.Wait(ctx)
}

// start resolves who is logged in and loads the views.
func (e *env) start() error {
	return e.wait(e.app.Start())
}

func (e *env) requireUser() error {
	if e.app.State() != ui.StateUserLogged {
		return errors.New("not logged in; run 'finance login' first")
	}
	return nil
}

// modalError returns the message a form left in its dialog, if any.
func (e *env) modalError(modal string) error {
	if msg := e.app.Modal(modal).Message; msg != "" {
		return errors.New(msg)
	}
	return nil
}

// close persists the service cookies and stops the callback loop.
func (e *env) close() {
	log := logger.FromContext(e.ctx)
	if e.keepCookies {
		if err := session.SaveCookies(e.ctx, e.store, e.client.Jar(), e.cfg.BaseURL); err != nil {
			log.Warn().Err(err).Msg("Failed to persist cookies")
		}
	}
	if err := e.loop.Stop(e.ctx); err != nil {
		log.Warn().Err(err).Msg("Callback loop did not stop cleanly")
	}
	if c, ok := e.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close session store")
		}
	}
}

func (e *env) printAccounts() error {
	if e.html {
		_, err := fmt.Fprintln(e.out, e.app.HTML())
		return err
	}
	return e.app.WriteAccounts(e.out)
}

func (e *env) printTransactions() error {
	if e.html {
		_, err := fmt.Fprintln(e.out, e.app.HTML())
		return err
	}
	return e.app.WriteTransactions(e.out)
}
