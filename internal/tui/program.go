package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"pagesdeck/internal/model"
	"pagesdeck/internal/reconcile"
)

type sender interface {
	Send(msg tea.Msg)
}

// programView forwards Driver notifications into the bubbletea event loop.
type programView struct {
	p sender
}

func (v programView) RenderLoading()             { v.p.Send(passStartedMsg{}) }
func (v programView) Render(c *model.Collection) { v.p.Send(collectionMsg{c: c}) }
func (v programView) RenderFailure(err error)    { v.p.Send(passFailedMsg{err: err}) }

var _ reconcile.View = programView{}

// Run shows the interactive client until the user quits. d must be the
// Driver behind b.
func Run(ctx context.Context, b Backend, d *reconcile.Driver) error {
	p := tea.NewProgram(New(ctx, b), tea.WithAltScreen(), tea.WithContext(ctx))
	d.SetView(programView{p: p})
	defer d.SetView(nil)
	_, err := p.Run()
	return err
}
