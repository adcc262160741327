// Package app assembles the session, API client and reconciliation engine
// shared by the TUI and the CLI subcommands.
package app

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"pagesdeck/internal/config"
	"pagesdeck/internal/forge"
	"pagesdeck/internal/logger"
	"pagesdeck/internal/model"
	"pagesdeck/internal/reconcile"
	"pagesdeck/internal/session"
)

// App is the object graph of one running client.
type App struct {
	Config  config.Config
	Session *session.Session
	Store   session.Store
	Forge   forge.Forge
	Driver  *reconcile.Driver
	Mutator *reconcile.Mutator

	log logger.Log
}

// New builds an App from cfg. The credential comes from cfg.Token when set,
// otherwise from the credential store.
func New(cfg config.Config, logFactory logger.LogFactory) (*App, error) {
	return NewWithClock(cfg, clock.New(), logFactory)
}

// NewWithClock is New with an explicit clock for Collection timestamps.
func NewWithClock(cfg config.Config, clk clock.Clock, logFactory logger.LogFactory) (*App, error) {
	log := logFactory("App")
	store := session.NewFileStore(cfg.CredentialsFile)

	token := cfg.Token
	if token == "" {
		stored, ok, err := store.Load()
		if err != nil {
			return nil, errors.Wrap(err, "error loading stored credential")
		}
		if ok {
			token = stored
			log.Debugf("loaded credential from %s", store.Path())
		}
	}
	sess := session.New(token)

	t, err := forge.NewTransport(cfg.APIURL, sess, logFactory)
	if err != nil {
		return nil, err
	}
	f := forge.NewGitHub(t, cfg.Affiliation)
	d := reconcile.NewDriver(f, clk, cfg.Concurrency, logFactory)

	return &App{
		Config:  cfg,
		Session: sess,
		Store:   store,
		Forge:   f,
		Driver:  d,
		Mutator: reconcile.NewMutator(f, d, logFactory),
		log:     log,
	}, nil
}

// Authenticate checks the held credential against the API and records the
// login it belongs to. A rejected credential is cleared from the session.
func (a *App) Authenticate(ctx context.Context) (string, error) {
	login, err := a.Forge.CurrentUser(ctx)
	if err != nil {
		if forge.IsAuthFailure(err) {
			a.Session.Clear()
		}
		a.log.WithError(err).Warn("authentication failed")
		return "", err
	}
	a.Session.SetIdentity(login)
	a.log.WithFields(logger.Fields{"login": login, "forge": a.Forge.Kind()}).Info("authenticated")
	return login, nil
}

// Login replaces the credential with token and verifies it. On success the
// token is saved to the credential store when persist is set. On failure the
// session is left without a credential.
func (a *App) Login(ctx context.Context, token string, persist bool) (string, error) {
	a.Session.SetCredential(token)
	if !a.Session.HasCredential() {
		return "", &forge.AuthFailure{Reason: "empty token"}
	}
	login, err := a.Authenticate(ctx)
	if err != nil {
		a.Session.Clear()
		return "", err
	}
	if persist {
		if err := a.Store.Save(token); err != nil {
			return login, errors.Wrap(err, "error saving credential")
		}
	}
	return login, nil
}

// Logout drops the credential from the session and the credential store.
func (a *App) Logout() error {
	a.Session.Clear()
	return a.Store.Clear()
}

// Close clears the session. Call session.Teardown once the process is done
// with all sessions.
func (a *App) Close() {
	a.Session.Clear()
}

func (a *App) HasCredential() bool { return a.Session.HasCredential() }

func (a *App) Identity() string { return a.Session.Identity() }

// ClearSession forgets the in-memory credential after it was rejected.
func (a *App) ClearSession() { a.Session.Clear() }

func (a *App) Reconcile(ctx context.Context) (*model.Collection, error) {
	return a.Driver.Reconcile(ctx)
}

func (a *App) Enable(ctx context.Context, key string, cfg model.BuildConfig) (*model.Collection, error) {
	return a.Mutator.Enable(ctx, key, cfg)
}

func (a *App) Update(ctx context.Context, key string, cfg model.BuildConfig) (*model.Collection, error) {
	return a.Mutator.Update(ctx, key, cfg)
}

func (a *App) Disable(ctx context.Context, key string) (*model.Collection, error) {
	return a.Mutator.Disable(ctx, key)
}

// ListBranches lists the branches of a repository in the published
// Collection.
func (a *App) ListBranches(ctx context.Context, key string) ([]string, error) {
	item, ok := a.Driver.Published().Find(key)
	if !ok {
		return nil, errors.Wrapf(reconcile.ErrNotInCollection, "repository %s", key)
	}
	return a.Forge.ListBranches(ctx, item.Repo)
}

// Resolve finds ref ("owner/name" or a bare name) in the published
// Collection, running a pass first when nothing has been published yet.
func (a *App) Resolve(ctx context.Context, ref string) (model.Item, error) {
	c := a.Driver.Published()
	if c == nil {
		var err error
		if c, err = a.Driver.Reconcile(ctx); err != nil {
			return model.Item{}, err
		}
	}
	return c.FindByName(ref)
}
