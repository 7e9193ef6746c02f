package middleware

import (
	"context"
	"net/http"

	"github.com/graph-gophers/dataloader"

	"github.com/rpattn/adminpanel/internal/productloader"
	"github.com/rpattn/adminpanel/internal/repository"
)

type ctxKey string

const productLoaderKey ctxKey = "productLoader"

// DataLoaderMiddleware attaches a request-scoped product loader to the context.
func DataLoaderMiddleware(repo repository.ProductRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loader := productloader.NewProductLoader(repo)
			next.ServeHTTP(w, r.WithContext(ContextWithProductLoader(r.Context(), loader.Loader)))
		})
	}
}

// ContextWithProductLoader stores l on ctx.
func ContextWithProductLoader(ctx context.Context, l *dataloader.Loader) context.Context {
	return context.WithValue(ctx, productLoaderKey, l)
}

// ProductLoaderFromContext retrieves the dataloader from context.
func ProductLoaderFromContext(ctx context.Context) *dataloader.Loader {
	if l, ok := ctx.Value(productLoaderKey).(*dataloader.Loader); ok {
		return l
	}
	return nil
}
