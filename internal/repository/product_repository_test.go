package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/adminpanel/internal/domain"
)

func productRows(mock pgxmock.PgxPoolIface, total int64, products ...domain.Product) *pgxmock.Rows {
	rows := mock.NewRows([]string{"id", "name", "status", "created_at", "updated_at", "total_count"})
	for _, p := range products {
		rows.AddRow(p.ID, p.Name, p.Status, p.CreatedAt, p.UpdatedAt, total)
	}
	return rows
}

func TestProductRepository_List(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	statuses := domain.DefaultStatusCatalog()

	t.Run("Should fall back to id desc without filters", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewProductRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, status, created_at, updated_at, COUNT(*) OVER() AS total_count FROM products ORDER BY id DESC LIMIT 10")).
			WillReturnRows(productRows(mock, 2,
				domain.Product{ID: 2, Name: "Beta", Status: "N", CreatedAt: now, UpdatedAt: now},
				domain.Product{ID: 1, Name: "Alpha", Status: "Y", CreatedAt: now, UpdatedAt: now},
			))

		products, total, err := repo.List(context.Background(), domain.ProductQuery{
			Sort:  domain.ProductSort{Field: "price", Direction: "up"},
			Limit: 10,
		}, statuses)
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		require.Len(t, products, 2)
		assert.Equal(t, int64(2), products[0].ID)
		assert.Equal(t, "Alpha", products[1].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should apply name filter case-insensitively and escape wildcards", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewProductRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta("FROM products WHERE name ILIKE $1 ORDER BY name ASC, id DESC LIMIT 25 OFFSET 25")).
			WithArgs(`%50\%\_off%`).
			WillReturnRows(productRows(mock, 26, domain.Product{ID: 9, Name: "50%_off mug", Status: "Y", CreatedAt: now, UpdatedAt: now}))

		products, total, err := repo.List(context.Background(), domain.ProductQuery{
			Filter: domain.ProductFilter{NameContains: "50%_off"},
			Sort:   domain.ProductSort{Field: domain.ProductSortFieldName, Direction: domain.SortDirectionAsc},
			Limit:  25,
			Offset: 25,
		}, statuses)
		require.NoError(t, err)
		assert.Equal(t, 26, total)
		assert.Len(t, products, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should use LIKE when case sensitive and combine status and date range", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewProductRepository(mock)
		from := now.Add(-24 * time.Hour)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE name LIKE $1 AND status = $2 AND created_at >= $3 AND created_at <= $4 ORDER BY created_at DESC, id DESC")).
			WithArgs("%Mug%", "Y", from, now).
			WillReturnRows(productRows(mock, 0))

		products, total, err := repo.List(context.Background(), domain.ProductQuery{
			Filter:        domain.ProductFilter{NameContains: "Mug", Status: "Y", CreatedFrom: &from, CreatedTo: &now},
			Sort:          domain.ProductSort{Field: domain.ProductSortFieldCreatedAt, Direction: domain.SortDirectionDesc},
			CaseSensitive: true,
		}, statuses)
		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, products)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should search name and status labels", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewProductRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE (name ILIKE $1 OR status IN ($2))")).
			WithArgs("%inact%", "N").
			WillReturnRows(productRows(mock, 1, domain.Product{ID: 3, Name: "Old", Status: "N", CreatedAt: now, UpdatedAt: now}))

		products, _, err := repo.List(context.Background(), domain.ProductQuery{Search: "inact"}, statuses)
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "N", products[0].Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should count separately when the page is past the end", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewProductRepository(mock)

		mock.ExpectQuery("SELECT (.+) FROM products ORDER BY id DESC LIMIT 10 OFFSET 50").
			WillReturnRows(productRows(mock, 0))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products")).
			WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(12)))

		products, total, err := repo.List(context.Background(), domain.ProductQuery{Limit: 10, Offset: 50}, statuses)
		require.NoError(t, err)
		assert.Empty(t, products)
		assert.Equal(t, 12, total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should restrict to selected ids", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := NewProductRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta("WHERE id IN ($1,$2)")).
			WithArgs(int64(4), int64(7)).
			WillReturnRows(productRows(mock, 2))

		_, _, err = repo.List(context.Background(), domain.ProductQuery{SelectedIDs: []int64{4, 7}}, statuses)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_GetByIDs(t *testing.T) {
	t.Run("Should short-circuit on empty ids", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		products, err := NewProductRepository(mock).GetByIDs(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, products)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should load products in id order", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		now := time.Now()

		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, status, created_at, updated_at FROM products WHERE id IN ($1,$2) ORDER BY id")).
			WithArgs(int64(1), int64(2)).
			WillReturnRows(mock.NewRows([]string{"id", "name", "status", "created_at", "updated_at"}).
				AddRow(int64(1), "Alpha", "Y", now, now).
				AddRow(int64(2), "Beta", "N", now, now))

		products, err := NewProductRepository(mock).GetByIDs(context.Background(), []int64{1, 2})
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "Beta", products[1].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestProductRepository_DeleteByIDs(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id IN ($1,$2,$3)")).
		WithArgs(int64(1), int64(2), int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	deleted, err := NewProductRepository(mock).DeleteByIDs(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
}
