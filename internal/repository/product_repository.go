package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/rpattn/adminpanel/internal/domain"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var productColumns = []string{"id", "name", "status", "created_at", "updated_at"}

// sortable columns; anything else is rejected before it reaches ORDER BY
var productSortColumns = map[domain.ProductSortField]string{
	domain.ProductSortFieldID:        "id",
	domain.ProductSortFieldName:      "name",
	domain.ProductSortFieldStatus:    "status",
	domain.ProductSortFieldCreatedAt: "created_at",
}

type productRepository struct {
	db DBInterface
}

// NewProductRepository creates a product repository on top of a pgx pool.
func NewProductRepository(db DBInterface) ProductRepository {
	return &productRepository{db: db}
}

type productListRow struct {
	domain.Product
	TotalCount int64 `db:"total_count"`
}

// List returns one page of products along with the total number of matching rows.
func (r *productRepository) List(ctx context.Context, query domain.ProductQuery, statuses domain.StatusCatalog) ([]domain.Product, int, error) {
	columns := append(append([]string(nil), productColumns...), "COUNT(*) OVER() AS total_count")
	qb := applyProductConditions(psql.Select(columns...).From("products"), query, statuses)
	qb = qb.OrderBy(orderByClause(query.Sort)...)
	if query.Limit > 0 {
		qb = qb.Limit(uint64(query.Limit))
	}
	if query.Offset > 0 {
		qb = qb.Offset(uint64(query.Offset))
	}

	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build product list query: %w", err)
	}

	var rows []productListRow
	if err := pgxscan.Select(ctx, r.db, &rows, sql, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = row.Product
	}

	if len(rows) > 0 {
		return products, int(rows[0].TotalCount), nil
	}
	if query.Offset == 0 {
		return products, 0, nil
	}
	// past the last page the window count is unavailable
	total, err := r.Count(ctx, query, statuses)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Count returns the number of products matching query, ignoring paging.
func (r *productRepository) Count(ctx context.Context, query domain.ProductQuery, statuses domain.StatusCatalog) (int, error) {
	sql, args, err := applyProductConditions(psql.Select("COUNT(*)").From("products"), query, statuses).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build product count query: %w", err)
	}
	var total int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return int(total), nil
}

// GetByIDs retrieves the products with the given ids, in id order.
func (r *productRepository) GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	sql, args, err := psql.Select(productColumns...).
		From("products").
		Where(sq.Eq{"id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product lookup query: %w", err)
	}
	var products []domain.Product
	if err := pgxscan.Select(ctx, r.db, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("failed to get products by IDs: %w", err)
	}
	return products, nil
}

// DeleteByIDs removes the given products and reports how many rows went away.
func (r *productRepository) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	sql, args, err := psql.Delete("products").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build product delete query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete products: %w", err)
	}
	return tag.RowsAffected(), nil
}

func applyProductConditions(qb sq.SelectBuilder, query domain.ProductQuery, statuses domain.StatusCatalog) sq.SelectBuilder {
	f := query.Filter
	if name := strings.TrimSpace(f.NameContains); name != "" {
		qb = qb.Where(likeCondition("name", name, query.CaseSensitive))
	}
	if status := strings.TrimSpace(f.Status); status != "" {
		qb = qb.Where(sq.Eq{"status": status})
	}
	if f.CreatedFrom != nil {
		qb = qb.Where(sq.GtOrEq{"created_at": *f.CreatedFrom})
	}
	if f.CreatedTo != nil {
		qb = qb.Where(sq.LtOrEq{"created_at": *f.CreatedTo})
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		or := sq.Or{likeCondition("name", search, query.CaseSensitive)}
		if keys := statuses.KeysMatchingLabel(search, query.CaseSensitive); len(keys) > 0 {
			or = append(or, sq.Eq{"status": keys})
		}
		qb = qb.Where(or)
	}
	if len(query.SelectedIDs) > 0 {
		qb = qb.Where(sq.Eq{"id": query.SelectedIDs})
	}
	return qb
}

func likeCondition(column, term string, caseSensitive bool) sq.Sqlizer {
	pattern := "%" + escapeLike(term) + "%"
	if caseSensitive {
		return sq.Like{column: pattern}
	}
	return sq.ILike{column: pattern}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func orderByClause(sort domain.ProductSort) []string {
	sort = sort.Normalize()
	column := productSortColumns[sort.Field]
	clauses := []string{fmt.Sprintf("%s %s", column, strings.ToUpper(string(sort.Direction)))}
	if sort.Field != domain.ProductSortFieldID {
		clauses = append(clauses, "id DESC")
	}
	return clauses
}
