package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/productloader"
	"github.com/rpattn/adminpanel/internal/repository"
	"github.com/rpattn/adminpanel/pkg/logger"
)

func TestLoggingMiddleware(t *testing.T) {
	t.Run("Should log the request and expose a request id", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf, Level: "info"})
		handler := LoggingMiddleware(log, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.FromContext(r.Context()).Info("inside handler")
			w.WriteHeader(http.StatusTeapot)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), "inside handler")
		assert.Contains(t, buf.String(), "status=418")
	})

	t.Run("Should turn a panic into a 500", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(logger.Config{Output: &buf, Level: "info"})
		handler := LoggingMiddleware(log, nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("kaboom")
		}))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.Header.Set(RequestIDHeader, "req-1")
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), "kaboom")
	})
}

type oneProductRepo struct {
	repository.ProductRepository
}

func (oneProductRepo) GetByIDs(_ context.Context, ids []int64) ([]domain.Product, error) {
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Product{ID: id, Name: "Mug"})
	}
	return out, nil
}

func TestDataLoaderMiddleware(t *testing.T) {
	var loaded domain.Product
	handler := DataLoaderMiddleware(oneProductRepo{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := ProductLoaderFromContext(r.Context())
		require.NotNil(t, l)
		p, err := productloader.Load(r.Context(), l, 7)
		require.NoError(t, err)
		loaded = p
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/products/show", nil))

	assert.Equal(t, int64(7), loaded.ID)
	assert.Nil(t, ProductLoaderFromContext(context.Background()))
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/exports/{id}/cancel", routeLabel("/exports/7f1c1a52-8a8e-4f5e-9a57-1a2b3c4d5e6f/cancel"))
	assert.Equal(t, "/product/{id}/edit", routeLabel("/product/12/edit"))
	assert.Equal(t, "/products", routeLabel("/products"))
}
