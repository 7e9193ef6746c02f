package product

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rpattn/adminpanel/internal/auth"
	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/events"
	"github.com/rpattn/adminpanel/internal/i18n"
	"github.com/rpattn/adminpanel/internal/metrics"
	"github.com/rpattn/adminpanel/internal/middleware"
	"github.com/rpattn/adminpanel/internal/productloader"
	"github.com/rpattn/adminpanel/internal/repository"
	"github.com/rpattn/adminpanel/internal/ui"
	"github.com/rpattn/adminpanel/pkg/logger"
)

// ShowDialog displays one product's details.
type ShowDialog struct {
	products repository.ProductRepository
	gate     auth.Gate
	effects  *ui.Effects
	log      logger.Logger
	metrics  *metrics.Metrics
	settings Settings

	current *Row
	detach  func()
}

// ShowView is the rendered dialog.
type ShowView struct {
	Open    bool `json:"open"`
	Product *Row `json:"product,omitempty"`
}

func NewShowDialog(deps Deps, settings Settings) *ShowDialog {
	if deps.Effects == nil {
		deps.Effects = &ui.Effects{}
	}
	if deps.Log == nil {
		deps.Log = logger.Default()
	}
	d := &ShowDialog{
		products: deps.Products,
		gate:     deps.Gate,
		effects:  deps.Effects,
		log:      deps.Log.With("component", ShowComponent),
		metrics:  deps.Metrics,
		settings: settings.withDefaults(),
	}
	if deps.Bus != nil {
		d.detach = deps.Bus.Listen(ShowComponent, EventShowProductInfo, func(ctx context.Context, evt events.Event) error {
			id, err := payloadID(evt.Payload)
			if err != nil {
				return err
			}
			return d.Open(ctx, id)
		})
	}
	return d
}

// Open loads id and shows it. A missing product only raises an alert.
func (d *ShowDialog) Open(ctx context.Context, id int64) error {
	if err := auth.Authorize(ctx, d.gate, CapShow); err != nil {
		return err
	}
	p, err := d.load(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		d.current = nil
		d.effects.Alert(ui.FlashError, i18n.T(i18n.FromContext(ctx), i18n.ProductNotFound))
		d.metrics.Interaction(ShowComponent, "open", "not_found")
		return nil
	}
	if err != nil {
		d.current = nil
		d.log.Error("show product failed", "id", id, "error", err, "stack", string(debug.Stack()))
		d.effects.Flash(ui.FlashError, i18n.T(i18n.FromContext(ctx), i18n.CommonErrorMessage))
		d.metrics.Interaction(ShowComponent, "open", "error")
		return nil
	}
	if err := auth.Authorize(ctx, d.gate, CapShow, p); err != nil {
		return err
	}
	row := presentRow(p, d.settings)
	d.current = &row
	d.metrics.Interaction(ShowComponent, "open", "ok")
	return nil
}

func (d *ShowDialog) load(ctx context.Context, id int64) (domain.Product, error) {
	if l := middleware.ProductLoaderFromContext(ctx); l != nil {
		return productloader.Load(ctx, l, id)
	}
	products, err := d.products.GetByIDs(ctx, []int64{id})
	if err != nil {
		return domain.Product{}, err
	}
	if len(products) == 0 {
		return domain.Product{}, fmt.Errorf("product %d: %w", id, repository.ErrNotFound)
	}
	return products[0], nil
}

// Close hides the dialog.
func (d *ShowDialog) Close() {
	d.current = nil
}

// Detach removes the bus listener.
func (d *ShowDialog) Detach() {
	if d.detach != nil {
		d.detach()
		d.detach = nil
	}
}

func (d *ShowDialog) View() ShowView {
	return ShowView{Open: d.current != nil, Product: d.current}
}
