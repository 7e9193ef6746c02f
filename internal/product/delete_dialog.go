package product

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"

	"github.com/rpattn/adminpanel/internal/auth"
	"github.com/rpattn/adminpanel/internal/events"
	"github.com/rpattn/adminpanel/internal/i18n"
	"github.com/rpattn/adminpanel/internal/metrics"
	"github.com/rpattn/adminpanel/internal/repository"
	"github.com/rpattn/adminpanel/internal/ui"
	"github.com/rpattn/adminpanel/pkg/logger"
)

// ErrNothingToConfirm is returned by Confirm when no deletion was requested.
var ErrNothingToConfirm = errors.New("no deletion awaiting confirmation")

// DeleteDialog asks for confirmation before removing products.
type DeleteDialog struct {
	products repository.ProductRepository
	gate     auth.Gate
	bus      *events.Bus
	effects  *ui.Effects
	log      logger.Logger
	metrics  *metrics.Metrics

	pending *DeletePayload
	bulk    bool
	detach  []func()
}

// DeleteView is the rendered dialog.
type DeleteView struct {
	Open      bool    `json:"open"`
	Bulk      bool    `json:"bulk"`
	IDs       []int64 `json:"ids,omitempty"`
	TableName string  `json:"tableName,omitempty"`
}

func NewDeleteDialog(deps Deps) *DeleteDialog {
	if deps.Bus == nil {
		deps.Bus = events.NewBus()
	}
	if deps.Effects == nil {
		deps.Effects = &ui.Effects{}
	}
	if deps.Log == nil {
		deps.Log = logger.Default()
	}
	d := &DeleteDialog{
		products: deps.Products,
		gate:     deps.Gate,
		bus:      deps.Bus,
		effects:  deps.Effects,
		log:      deps.Log.With("component", DeleteComponent),
		metrics:  deps.Metrics,
	}
	d.detach = []func(){
		deps.Bus.Listen(DeleteComponent, EventDeleteConfirmation, func(_ context.Context, evt events.Event) error {
			return d.ask(evt.Payload, false)
		}),
		deps.Bus.Listen(DeleteComponent, EventBulkDeleteConfirmation, func(_ context.Context, evt events.Event) error {
			return d.ask(evt.Payload, true)
		}),
	}
	return d
}

func (d *DeleteDialog) ask(payload any, bulk bool) error {
	var p DeletePayload
	switch v := payload.(type) {
	case DeletePayload:
		p = v
	case *DeletePayload:
		if v == nil {
			return errors.New("nil delete payload")
		}
		p = *v
	default:
		return fmt.Errorf("unexpected delete payload %T", payload)
	}
	if len(p.IDs) == 0 {
		return errors.New("delete payload has no ids")
	}
	p.IDs = slices.Clone(p.IDs)
	d.pending = &p
	d.bulk = bulk
	return nil
}

// Confirm deletes the pending ids. On success the grid is told to clear its
// selection and refresh. It returns how many rows were removed.
func (d *DeleteDialog) Confirm(ctx context.Context) (int64, error) {
	if d.pending == nil {
		return 0, ErrNothingToConfirm
	}
	capability := CapDelete
	if d.bulk {
		capability = CapBulkDelete
	}
	loc := i18n.FromContext(ctx)
	if err := d.authorize(ctx, capability, d.pending.IDs); err != nil {
		if errors.Is(err, auth.ErrForbidden) {
			return 0, err
		}
		d.log.Error("load products for delete failed", "ids", d.pending.IDs, "error", err)
		d.effects.Flash(ui.FlashError, i18n.T(loc, i18n.CommonErrorMessage))
		d.metrics.Interaction(DeleteComponent, "confirm", "error")
		return 0, nil
	}
	deleted, err := d.products.DeleteByIDs(ctx, d.pending.IDs)
	if err != nil {
		d.log.Error("delete products failed", "ids", d.pending.IDs, "error", err, "stack", string(debug.Stack()))
		d.effects.Flash(ui.FlashError, i18n.T(loc, i18n.CommonErrorMessage))
		d.metrics.Interaction(DeleteComponent, "confirm", "error")
		return 0, nil
	}
	d.pending = nil
	d.effects.Flash(ui.FlashSuccess, i18n.T(loc, i18n.ProductsDeleted, deleted))
	d.metrics.ProductsDeleted(deleted)
	d.metrics.Interaction(DeleteComponent, "confirm", "ok")

	err = errors.Join(
		d.bus.Dispatch(ctx, events.Event{Name: EventDeselectCheckBox}),
		d.bus.Dispatch(ctx, events.Event{Name: EventRefresh, To: TableComponent}),
	)
	return deleted, err
}

// authorize checks capability on its own and then against every product in
// ids, so subject policies such as StatusLock apply to each row.
func (d *DeleteDialog) authorize(ctx context.Context, capability string, ids []int64) error {
	if err := auth.Authorize(ctx, d.gate, capability); err != nil {
		return err
	}
	rows, err := d.products.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	for _, p := range rows {
		if err := auth.Authorize(ctx, d.gate, capability, p); err != nil {
			return fmt.Errorf("product %d: %w", p.ID, err)
		}
	}
	return nil
}

// Cancel dismisses the dialog without deleting.
func (d *DeleteDialog) Cancel() {
	d.pending = nil
	d.bulk = false
}

// Detach removes the bus listeners.
func (d *DeleteDialog) Detach() {
	for _, fn := range d.detach {
		fn()
	}
	d.detach = nil
}

func (d *DeleteDialog) View() DeleteView {
	if d.pending == nil {
		return DeleteView{}
	}
	return DeleteView{
		Open:      true,
		Bulk:      d.bulk,
		IDs:       slices.Clone(d.pending.IDs),
		TableName: d.pending.TableName,
	}
}
