package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"pagesdeck/internal/forge"
	"pagesdeck/internal/logger"
	"pagesdeck/internal/model"
)

// ErrSuperseded is returned by a pass that completed after a newer pass had
// already been published. Its result is discarded.
var ErrSuperseded = errors.New("reconciliation pass superseded by a newer pass")

// ReconcileFailure means the repository collection could not be enumerated.
// No Collection was published.
type ReconcileFailure struct {
	Seq   uint64
	Cause error
}

func (e *ReconcileFailure) Error() string {
	return fmt.Sprintf("could not reach repository collection: %v", e.Cause)
}

func (e *ReconcileFailure) Unwrap() error { return e.Cause }

// Source is what a reconciliation pass reads from.
type Source interface {
	ListReposPage(ctx context.Context, page, perPage int) ([]model.Repo, error)
	PagesLookup
}

// Driver runs reconciliation passes and holds the most recently published
// Collection.
type Driver struct {
	src   Source
	clock clock.Clock
	limit int
	log   logger.Log

	mu        sync.Mutex
	view      View
	started   uint64
	published *model.Collection
}

// NewDriver returns a Driver reading from src. limit bounds concurrent Pages
// lookups (0 = unbounded).
func NewDriver(src Source, clk clock.Clock, limit int, logFactory logger.LogFactory) *Driver {
	return &Driver{
		src:   src,
		clock: clk,
		limit: limit,
		log:   logFactory("Driver"),
		view:  NopView{},
	}
}

// SetView replaces the view notified of pass outcomes.
func (d *Driver) SetView(v View) {
	if v == nil {
		v = NopView{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.view = v
}

// Published returns the most recently published Collection, or nil before
// the first successful pass.
func (d *Driver) Published() *model.Collection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.published
}

// Reconcile enumerates all repositories, enriches them with their Pages
// configuration and publishes the result. On failure the previously
// published Collection is left untouched.
func (d *Driver) Reconcile(ctx context.Context) (*model.Collection, error) {
	d.mu.Lock()
	d.started++
	seq := d.started
	d.view.RenderLoading()
	d.mu.Unlock()

	log := d.log.WithField("pass", seq)
	start := d.clock.Now()
	log.Debug("reconciliation pass started")

	repos, err := forge.ListAll(ctx, d.src.ListReposPage)
	if err != nil {
		failure := &ReconcileFailure{Seq: seq, Cause: err}
		log.WithError(err).Warn("reconciliation pass failed")
		d.mu.Lock()
		if !d.stale(seq) {
			d.view.RenderFailure(failure)
		}
		d.mu.Unlock()
		return nil, failure
	}

	items := Enrich(ctx, d.src, repos, d.limit)
	c := &model.Collection{Items: items, Seq: seq, FetchedAt: d.clock.Now()}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stale(seq) {
		log.Info("discarding superseded reconciliation pass")
		return nil, ErrSuperseded
	}
	d.published = c
	d.view.Render(c)

	enabled, absent, unknown := c.Counts()
	log.WithFields(logger.Fields{
		"repos":    c.Len(),
		"enabled":  enabled,
		"absent":   absent,
		"unknown":  unknown,
		"duration": d.clock.Since(start),
	}).Info("reconciliation pass published")
	return c, nil
}

// stale reports whether a pass newer than seq has already been published.
// d.mu must be held.
func (d *Driver) stale(seq uint64) bool {
	return d.published != nil && d.published.Seq > seq
}
