package reconcile

import (
	"context"
	"errors"
	"fmt"

	"pagesdeck/internal/logger"
	"pagesdeck/internal/model"
)

// Op names a mutation.
type Op string

const (
	OpEnable  Op = "enable"
	OpUpdate  Op = "update"
	OpDisable Op = "disable"
)

var (
	ErrNotInCollection = errors.New("repository is not in the current collection, refresh first")
	ErrAlreadyEnabled  = errors.New("pages is already enabled")
	ErrNotEnabled      = errors.New("pages is not enabled")
	ErrStateUnknown    = errors.New("pages state could not be checked, refresh first")
)

// MutationFailure reports a failed write for one repository. No
// reconciliation pass follows a failed mutation.
type MutationFailure struct {
	Op    Op
	Key   string
	Cause error
}

func (e *MutationFailure) Error() string {
	return fmt.Sprintf("repository %s: %s pages: %v", e.Key, e.Op, e.Cause)
}

func (e *MutationFailure) Unwrap() error { return e.Cause }

// done is the past tense used in messages.
func (o Op) done() string {
	return string(o) + "d"
}

// RefreshFailure means a write was applied but the reconciliation pass that
// followed it failed, so no Collection reflects the write yet.
type RefreshFailure struct {
	Op    Op
	Key   string
	Cause error
}

func (e *RefreshFailure) Error() string {
	return fmt.Sprintf("repository %s: pages %s, refresh failed: %v", e.Key, e.Op.done(), e.Cause)
}

func (e *RefreshFailure) Unwrap() error { return e.Cause }

// Writer issues Pages writes.
type Writer interface {
	CreatePages(ctx context.Context, repo model.Repo, cfg model.BuildConfig) error
	UpdatePages(ctx context.Context, repo model.Repo, cfg model.BuildConfig) error
	DeletePages(ctx context.Context, repo model.Repo) error
}

// Mutator changes Pages configuration and re-derives state from the remote
// with a full reconciliation pass after every successful write. It keeps no
// state of its own; at most one operation per repository should be in flight,
// which callers enforce.
type Mutator struct {
	w   Writer
	d   *Driver
	log logger.Log
}

func NewMutator(w Writer, d *Driver, logFactory logger.LogFactory) *Mutator {
	return &Mutator{w: w, d: d, log: logFactory("Mutator")}
}

// Enable creates a Pages site for key.
func (m *Mutator) Enable(ctx context.Context, key string, cfg model.BuildConfig) (*model.Collection, error) {
	item, err := m.target(OpEnable, key)
	if err != nil {
		return nil, err
	}
	if item.Publication.Present() {
		return nil, m.fail(OpEnable, key, ErrAlreadyEnabled)
	}
	if err := cfg.Validate(); err != nil {
		return nil, m.fail(OpEnable, key, err)
	}
	if err := m.w.CreatePages(ctx, item.Repo, cfg); err != nil {
		return nil, m.fail(OpEnable, key, err)
	}
	return m.reconcile(ctx, OpEnable, key)
}

// Update replaces the Pages configuration of key.
func (m *Mutator) Update(ctx context.Context, key string, cfg model.BuildConfig) (*model.Collection, error) {
	item, err := m.target(OpUpdate, key)
	if err != nil {
		return nil, err
	}
	if err := requireEnabled(item); err != nil {
		return nil, m.fail(OpUpdate, key, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, m.fail(OpUpdate, key, err)
	}
	if err := m.w.UpdatePages(ctx, item.Repo, cfg); err != nil {
		return nil, m.fail(OpUpdate, key, err)
	}
	return m.reconcile(ctx, OpUpdate, key)
}

// Disable deletes the Pages site of key.
func (m *Mutator) Disable(ctx context.Context, key string) (*model.Collection, error) {
	item, err := m.target(OpDisable, key)
	if err != nil {
		return nil, err
	}
	if err := requireEnabled(item); err != nil {
		return nil, m.fail(OpDisable, key, err)
	}
	if err := m.w.DeletePages(ctx, item.Repo); err != nil {
		return nil, m.fail(OpDisable, key, err)
	}
	return m.reconcile(ctx, OpDisable, key)
}

func (m *Mutator) target(op Op, key string) (model.Item, error) {
	item, ok := m.d.Published().Find(key)
	if !ok {
		return model.Item{}, m.fail(op, key, ErrNotInCollection)
	}
	return item, nil
}

func requireEnabled(item model.Item) error {
	switch item.Publication.State {
	case model.PublicationEnabled:
		return nil
	case model.PublicationUnknown:
		return ErrStateUnknown
	default:
		return ErrNotEnabled
	}
}

func (m *Mutator) fail(op Op, key string, cause error) error {
	m.log.WithFields(logger.Fields{"op": op, "repo": key}).WithError(cause).Warn("mutation failed")
	return &MutationFailure{Op: op, Key: key, Cause: cause}
}

func (m *Mutator) reconcile(ctx context.Context, op Op, key string) (*model.Collection, error) {
	m.log.WithFields(logger.Fields{"op": op, "repo": key}).Info("mutation applied")
	c, err := m.d.Reconcile(ctx)
	switch {
	case errors.Is(err, ErrSuperseded):
		// A newer pass already reflects the write.
		return m.d.Published(), nil
	case err != nil:
		return nil, &RefreshFailure{Op: op, Key: key, Cause: err}
	}
	return c, nil
}
