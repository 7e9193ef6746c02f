package product

import (
	"context"

	"github.com/rpattn/adminpanel/internal/events"
	"github.com/rpattn/adminpanel/internal/export"
	"github.com/rpattn/adminpanel/internal/ui"
)

// PageDeps wires one session's listing page.
type PageDeps struct {
	Deps
	Progress export.ProgressSource
}

// Page is everything one session sees on the product listing: the grid, its
// dialogs and the export progress widget, all sharing a bus and effects.
type Page struct {
	Bus      *events.Bus
	Effects  *ui.Effects
	Table    *Table
	Show     *ShowDialog
	Delete   *DeleteDialog
	Progress *export.ProgressTracker

	detachProgress func()
}

// PageView is the combined render of a Page.
type PageView struct {
	Table  View       `json:"table"`
	Show   ShowView   `json:"show"`
	Delete DeleteView `json:"delete"`
}

// NewPage builds the listing for the principal on ctx.
func NewPage(ctx context.Context, deps PageDeps, settings Settings) (*Page, error) {
	if deps.Bus == nil {
		deps.Bus = events.NewBus()
	}
	if deps.Effects == nil {
		deps.Effects = &ui.Effects{}
	}
	table, err := NewTable(ctx, deps.Deps, settings)
	if err != nil {
		return nil, err
	}
	p := &Page{
		Bus:     deps.Bus,
		Effects: deps.Effects,
		Table:   table,
		Show:    NewShowDialog(deps.Deps, settings),
		Delete:  NewDeleteDialog(deps.Deps),
	}
	if deps.Progress != nil {
		p.Progress = export.NewProgressTracker(deps.Progress)
		p.detachProgress = p.Progress.Attach(deps.Bus)
	}
	return p, nil
}

// Render builds the combined view.
func (p *Page) Render(ctx context.Context) (PageView, error) {
	table, err := p.Table.Render(ctx)
	if err != nil {
		return PageView{}, err
	}
	return PageView{Table: table, Show: p.Show.View(), Delete: p.Delete.View()}, nil
}

// Respond wraps view with everything the interaction produced and resets the
// effects for the next one.
func (p *Page) Respond(view any) ui.Response {
	resp := ui.Response{
		View:     view,
		Events:   p.Bus.Drain(),
		Flashes:  p.Effects.Flashes(),
		Alerts:   p.Effects.Alerts(),
		Redirect: p.Effects.RedirectTo(),
	}
	p.Effects.Reset()
	return resp
}

// Close detaches every listener; the session store calls it on eviction.
func (p *Page) Close() {
	p.Table.Close()
	p.Show.Detach()
	p.Delete.Detach()
	if p.detachProgress != nil {
		p.detachProgress()
		p.detachProgress = nil
	}
}
