package product

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/adminpanel/internal/auth"
	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/events"
	"github.com/rpattn/adminpanel/pkg/logger"
	"github.com/rpattn/adminpanel/pkg/validator"
)

// PageFunc resolves the session page behind r. release must be called once
// the interaction is done.
type PageFunc func(w http.ResponseWriter, r *http.Request) (page *Page, release func(), err error)

type Handler struct {
	pages PageFunc
}

func NewHTTPHandler(pages PageFunc) *Handler {
	return &Handler{pages: pages}
}

// Register mounts the listing routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", h.handleRender)
	mux.HandleFunc("POST /products/sort", h.handleSort)
	mux.HandleFunc("POST /products/filters", h.handleFilters)
	mux.HandleFunc("POST /products/filters/clear", h.handleClearFilters)
	mux.HandleFunc("POST /products/search", h.handleSearch)
	mux.HandleFunc("POST /products/page", h.handlePage)
	mux.HandleFunc("POST /products/per-page", h.handlePerPage)
	mux.HandleFunc("POST /products/select", h.handleSelect)
	mux.HandleFunc("POST /products/toggle", h.handleToggle)
	mux.HandleFunc("POST /products/deselect", h.handleDeselect)
	mux.HandleFunc("POST /products/bulk-delete", h.handleBulkDelete)
	mux.HandleFunc("POST /products/export", h.handleExport)
	mux.HandleFunc("POST /products/edit", h.handleEdit)
	mux.HandleFunc("POST /products/show", h.handleShow)
	mux.HandleFunc("POST /products/show/close", h.handleShowClose)
	mux.HandleFunc("POST /products/delete", h.handleDelete)
	mux.HandleFunc("POST /products/delete/confirm", h.handleDeleteConfirm)
	mux.HandleFunc("POST /products/delete/cancel", h.handleDeleteCancel)
}

type sortRequest struct {
	Field     string `json:"field" validate:"required,max=64"`
	Direction string `json:"direction" validate:"omitempty,oneof=asc desc"`
}

type filterRequest struct {
	Name        string     `json:"name" validate:"max=255"`
	Status      string     `json:"status" validate:"max=16"`
	CreatedFrom *time.Time `json:"created_from"`
	CreatedTo   *time.Time `json:"created_to"`
}

type searchRequest struct {
	Search string `json:"search" validate:"max=255"`
}

type pageRequest struct {
	Page int `json:"page" validate:"min=1"`
}

type perPageRequest struct {
	PerPage int `json:"perPage" validate:"gt=0"`
}

type selectRequest struct {
	IDs []int64 `json:"ids"`
	All *bool   `json:"all"`
}

type idRequest struct {
	ID int64 `json:"id" validate:"gt=0"`
}

type deleteRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) handleRender(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	h.interact(w, r, nil, func(_ context.Context, p *Page) error {
		if field := strings.TrimSpace(query.Get("sort")); field != "" {
			direction := query.Get("direction")
			if direction == "" {
				direction = string(domain.SortDirectionAsc)
			}
			p.Table.SortBy(field, direction)
		}
		if query.Has("search") {
			p.Table.SetSearch(query.Get("search"))
		}
		if raw := strings.TrimSpace(query.Get("perPage")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return badRequest("perPage must be an integer")
			}
			if err := p.Table.SetPerPage(n); err != nil {
				return err
			}
		}
		if raw := strings.TrimSpace(query.Get("page")); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return badRequest("page must be a positive integer")
			}
			if n != p.Table.Page() {
				p.Table.HandlePageChange(n)
			}
		}
		return nil
	})
}

func (h *Handler) handleSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	h.interact(w, r, &req, func(_ context.Context, p *Page) error {
		p.Table.SortBy(req.Field, req.Direction)
		return nil
	})
}

func (h *Handler) handleFilters(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	h.interact(w, r, &req, func(_ context.Context, p *Page) error {
		return p.Table.SetFilter(domain.ProductFilter{
			NameContains: strings.TrimSpace(req.Name),
			Status:       strings.TrimSpace(req.Status),
			CreatedFrom:  req.CreatedFrom,
			CreatedTo:    req.CreatedTo,
		})
	})
}

func (h *Handler) handleClearFilters(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, nil, func(_ context.Context, p *Page) error {
		p.Table.ClearFilters()
		return nil
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	h.interact(w, r, &req, func(_ context.Context, p *Page) error {
		p.Table.SetSearch(strings.TrimSpace(req.Search))
		return nil
	})
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	h.interact(w, r, &req, func(_ context.Context, p *Page) error {
		p.Table.HandlePageChange(req.Page)
		return nil
	})
}

func (h *Handler) handlePerPage(w http.ResponseWriter, r *http.Request) {
	var req perPageRequest
	h.interact(w, r, &req, func(_ context.Context, p *Page) error {
		return p.Table.SetPerPage(req.PerPage)
	})
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	h.interact(w, r, &req, func(_ context.Context, p *Page) error {
		if req.All != nil {
			p.Table.SelectAll(*req.All)
			return nil
		}
		return p.Table.Select(req.IDs...)
	})
}

func (h *Handler) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	h.interact(w, r, &req, func(_ context.Context, p *Page) error {
		return p.Table.Toggle(req.ID)
	})
}

func (h *Handler) handleDeselect(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, nil, func(ctx context.Context, p *Page) error {
		return p.Bus.Dispatch(ctx, events.Event{Name: EventDeselectCheckBox})
	})
}

func (h *Handler) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, nil, func(ctx context.Context, p *Page) error {
		return p.Table.BulkDelete(ctx)
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, nil, func(ctx context.Context, p *Page) error {
		_, err := p.Table.ExportData(ctx)
		return err
	})
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	h.interact(w, r, &req, func(ctx context.Context, p *Page) error {
		return p.Bus.Dispatch(ctx, events.Event{Name: EventEdit, To: TableComponent, Payload: IDPayload{ID: req.ID}})
	})
}

func (h *Handler) handleShow(w http.ResponseWriter, r *http.Request) {
	var req idRequest
	h.interact(w, r, &req, func(ctx context.Context, p *Page) error {
		return p.Bus.Dispatch(ctx, events.Event{Name: EventShowProductInfo, To: ShowComponent, Payload: IDPayload{ID: req.ID}})
	})
}

func (h *Handler) handleShowClose(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, nil, func(_ context.Context, p *Page) error {
		p.Show.Close()
		return nil
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	h.interact(w, r, &req, func(ctx context.Context, p *Page) error {
		if err := p.Delete.authorize(ctx, CapDelete, req.IDs); err != nil {
			return err
		}
		return p.Bus.Dispatch(ctx, events.Event{
			Name:    EventDeleteConfirmation,
			To:      DeleteComponent,
			Payload: DeletePayload{IDs: req.IDs, TableName: p.Table.TableName()},
		})
	})
}

func (h *Handler) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, nil, func(ctx context.Context, p *Page) error {
		_, err := p.Delete.Confirm(ctx)
		return err
	})
}

func (h *Handler) handleDeleteCancel(w http.ResponseWriter, r *http.Request) {
	h.interact(w, r, nil, func(_ context.Context, p *Page) error {
		p.Delete.Cancel()
		return nil
	})
}

// interact decodes body into req (when non-nil), runs fn against the
// session page and answers with the re-rendered page.
func (h *Handler) interact(w http.ResponseWriter, r *http.Request, req any, fn func(ctx context.Context, p *Page) error) {
	if req != nil {
		if err := decodeBody(r, req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	page, release, err := h.pages(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer release()

	ctx := r.Context()
	if err := fn(ctx, page); err != nil {
		page.Effects.Reset()
		page.Bus.Drain()
		h.fail(w, r, err)
		return
	}
	view, err := page.Render(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page.Respond(view))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var invalid validator.ValidationResult
	var bad badRequest
	switch {
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.As(err, &invalid), errors.As(err, &bad):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotOnPage), errors.Is(err, ErrInvalidPerPage), errors.Is(err, ErrInvalidFilter):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNothingToConfirm):
		writeError(w, http.StatusConflict, err.Error())
	default:
		logger.FromContext(r.Context()).Error("product interaction failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}

type badRequest string

func (b badRequest) Error() string { return string(b) }

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid request body: " + err.Error())
	}
	return validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
