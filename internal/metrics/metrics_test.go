package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("Should count export completions and rows", func(t *testing.T) {
		m := New()
		m.ExportFinished("ExportProductTable", "COMPLETED", 12)
		m.ExportFinished("ExportProductTable", "FAILED", 0)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.exportJobs.WithLabelValues("ExportProductTable", "COMPLETED")))
		assert.Equal(t, float64(12), testutil.ToFloat64(m.exportRows))
	})

	t.Run("Should tolerate a nil receiver", func(t *testing.T) {
		var m *Metrics
		assert.NotPanics(t, func() {
			m.ObserveHTTP("GET", "/products", 200, time.Millisecond)
			m.Interaction("product.table", "bulkDelete", "ok")
			m.ProductsDeleted(3)
		})
	})

	t.Run("Should expose collectors over HTTP", func(t *testing.T) {
		m := New()
		m.ProductsDeleted(2)
		m.ObserveHTTP("GET", "/products", 200, 5*time.Millisecond)

		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.True(t, strings.Contains(body, "admin_products_deleted_total 2"))
		assert.Contains(t, body, `admin_http_requests_total{code="200",method="GET",route="/products"} 1`)
	})
}
