package product

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/events"
	"github.com/rpattn/adminpanel/internal/export"
	"github.com/rpattn/adminpanel/internal/repository"
)

type stubProducts struct {
	mu        sync.Mutex
	products  []domain.Product
	listErr   error
	countErr  error
	deleteErr error
	lastQuery domain.ProductQuery
	deleted   [][]int64
}

func newStubProducts(n int) *stubProducts {
	base := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	s := &stubProducts{}
	for i := 1; i <= n; i++ {
		status := "Y"
		if i%2 == 0 {
			status = "N"
		}
		s.products = append(s.products, domain.Product{
			ID:        int64(i),
			Name:      fmt.Sprintf("Product %02d", i),
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return s
}

func (s *stubProducts) matching(q domain.ProductQuery, statuses domain.StatusCatalog) []domain.Product {
	var out []domain.Product
	for _, p := range s.products {
		if len(q.SelectedIDs) > 0 && !slices.Contains(q.SelectedIDs, p.ID) {
			continue
		}
		if q.Filter.NameContains != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Filter.NameContains)) {
			continue
		}
		if q.Filter.Status != "" && p.Status != q.Filter.Status {
			continue
		}
		if q.Search != "" &&
			!strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Search)) &&
			!slices.Contains(statuses.KeysMatchingLabel(q.Search, q.CaseSensitive), p.Status) {
			continue
		}
		out = append(out, p)
	}
	sortProducts(out, q.Sort.Normalize())
	return out
}

func sortProducts(products []domain.Product, s domain.ProductSort) {
	less := func(a, b domain.Product) bool { return a.ID < b.ID }
	switch s.Field {
	case domain.ProductSortFieldName:
		less = func(a, b domain.Product) bool { return a.Name < b.Name }
	case domain.ProductSortFieldStatus:
		less = func(a, b domain.Product) bool { return a.Status < b.Status }
	case domain.ProductSortFieldCreatedAt:
		less = func(a, b domain.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
	sort.SliceStable(products, func(i, j int) bool {
		if s.Direction == domain.SortDirectionDesc {
			return less(products[j], products[i])
		}
		return less(products[i], products[j])
	})
}

func (s *stubProducts) List(_ context.Context, q domain.ProductQuery, statuses domain.StatusCatalog) ([]domain.Product, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery = q
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	all := s.matching(q, statuses)
	total := len(all)
	if q.Offset >= len(all) {
		return []domain.Product{}, total, nil
	}
	all = all[q.Offset:]
	if q.Limit > 0 && len(all) > q.Limit {
		all = all[:q.Limit]
	}
	return all, total, nil
}

func (s *stubProducts) Count(_ context.Context, q domain.ProductQuery, statuses domain.StatusCatalog) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countErr != nil {
		return 0, s.countErr
	}
	return len(s.matching(q, statuses)), nil
}

func (s *stubProducts) GetByIDs(_ context.Context, ids []int64) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Product
	for _, p := range s.products {
		if slices.Contains(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProducts) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	s.deleted = append(s.deleted, slices.Clone(ids))
	before := len(s.products)
	s.products = slices.DeleteFunc(s.products, func(p domain.Product) bool { return slices.Contains(ids, p.ID) })
	return int64(before - len(s.products)), nil
}

var _ repository.ProductRepository = (*stubProducts)(nil)

// capGate allows exactly the listed capabilities.
type capGate map[string]bool

func (g capGate) Allows(_ context.Context, capability string, _ ...any) bool {
	return g[capability]
}

func allCaps() capGate {
	return capGate{
		CapView: true, CapShow: true, CapEdit: true, CapDelete: true,
		CapBulkDelete: true, CapExport: true, CapAdd: true,
	}
}

func (g capGate) without(caps ...string) capGate {
	out := capGate{}
	for k, v := range g {
		out[k] = v
	}
	for _, c := range caps {
		delete(out, c)
	}
	return out
}

// rowLockGate behaves like capGate but denies capability on one product id.
type rowLockGate struct {
	capGate
	capability string
	locked     int64
}

func (g rowLockGate) Allows(ctx context.Context, capability string, subject ...any) bool {
	if len(subject) > 0 && capability == g.capability {
		if p, ok := subject[0].(domain.Product); ok && p.ID == g.locked {
			return false
		}
	}
	return g.capGate.Allows(ctx, capability, subject...)
}

type stubExporter struct {
	requests []export.Request
	result   export.Result
	err      error
	panicVal any
}

func (e *stubExporter) RunExportJob(_ context.Context, req export.Request) (export.Result, error) {
	if e.panicVal != nil {
		panic(e.panicVal)
	}
	e.requests = append(e.requests, req)
	return e.result, e.err
}

var errBoom = errors.New("boom")

type brokenForwarder struct{}

func (brokenForwarder) Forward(context.Context, events.Event) error { return errBoom }
