package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rpattn/adminpanel/internal/domain"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("record not found")

// DBInterface is the subset of pgxpool.Pool the repositories need. pgxmock pools satisfy it too.
type DBInterface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepository is the record source behind the product grid.
type ProductRepository interface {
	List(ctx context.Context, query domain.ProductQuery, statuses domain.StatusCatalog) ([]domain.Product, int, error)
	Count(ctx context.Context, query domain.ProductQuery, statuses domain.StatusCatalog) (int, error)
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

// ExportJobRepository persists export jobs and their lifecycle transitions.
type ExportJobRepository interface {
	Create(ctx context.Context, job domain.ExportJob) (domain.ExportJob, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.ExportJob, error)
	List(ctx context.Context, owner *string, statuses []domain.ExportJobStatus, limit int, offset int) ([]domain.ExportJob, error)
	HasActive(ctx context.Context, owner string, jobClass string) (bool, error)
	MarkRunning(ctx context.Context, id uuid.UUID) error
	UpdateProgress(ctx context.Context, id uuid.UUID, rowsExported int, bytesWritten int64) error
	MarkCompleted(ctx context.Context, id uuid.UUID, result ExportResult) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	MarkCancelled(ctx context.Context, id uuid.UUID, reason string) error
	ListFinishedBefore(ctx context.Context, before time.Time) ([]domain.ExportJob, error)
	ClearFile(ctx context.Context, id uuid.UUID) error
}

// ExportResult is what a worker reports when a file has been produced.
type ExportResult struct {
	RowsExported int
	BytesWritten int64
	FilePath     *string
	FileMimeType *string
	FileByteSize *int64
}
