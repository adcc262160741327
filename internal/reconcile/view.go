package reconcile

import "pagesdeck/internal/model"

// View receives the outcome of reconciliation passes. The Driver calls it
// while holding its lock, so implementations must not call back into the
// Driver.
type View interface {
	RenderLoading()
	Render(c *model.Collection)
	RenderFailure(err error)
}

// NopView discards everything.
type NopView struct{}

func (NopView) RenderLoading()           {}
func (NopView) Render(*model.Collection) {}
func (NopView) RenderFailure(error)      {}
