package productloader

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/repository"
)

type ProductLoader struct {
	Loader *dataloader.Loader
}

func NewProductLoader(repo repository.ProductRepository) *ProductLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]int64, len(keys))
		for i, k := range keys {
			id, err := strconv.ParseInt(k.String(), 10, 64)
			if err != nil {
				return errorResults(len(keys), fmt.Errorf("invalid product id %q: %w", k.String(), err))
			}
			ids[i] = id
		}

		products, err := repo.GetByIDs(ctx, ids)
		if err != nil {
			return errorResults(len(keys), err)
		}

		byID := make(map[int64]domain.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		// results must line up with keys
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			if p, ok := byID[id]; ok {
				results[i] = &dataloader.Result{Data: p}
			} else {
				results[i] = &dataloader.Result{Error: fmt.Errorf("product %d: %w", id, repository.ErrNotFound)}
			}
		}
		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))
	return &ProductLoader{Loader: loader}
}

// Key is the loader key of a product id.
func Key(id int64) dataloader.Key {
	return dataloader.StringKey(strconv.FormatInt(id, 10))
}

// Load fetches one product through l, batching with concurrent loads.
func Load(ctx context.Context, l *dataloader.Loader, id int64) (domain.Product, error) {
	data, err := l.Load(ctx, Key(id))()
	if err != nil {
		return domain.Product{}, err
	}
	product, ok := data.(domain.Product)
	if !ok {
		return domain.Product{}, fmt.Errorf("product %d: unexpected loader value %T", id, data)
	}
	return product, nil
}

func errorResults(n int, err error) []*dataloader.Result {
	results := make([]*dataloader.Result, n)
	for i := range results {
		results[i] = &dataloader.Result{Error: err}
	}
	return results
}
