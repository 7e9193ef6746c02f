package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rpattn/adminpanel/internal/domain"
)

var (
	// ErrExportJobStatusConflict indicates that a job cannot transition to the requested state.
	ErrExportJobStatusConflict = errors.New("export job status conflict")
	// ErrExportJobActive is returned by Create when the owner already has a
	// pending or running job of the same class.
	ErrExportJobActive = errors.New("export job already active")
)

const activeJobIndex = "uq_export_jobs_active"

var exportJobColumns = []string{
	"id", "owner", "job_class", "batch_name", "params",
	"rows_requested", "rows_exported", "bytes_written",
	"file_path", "file_mime_type", "file_byte_size",
	"status", "error_message",
	"enqueued_at", "started_at", "completed_at", "updated_at",
}

type exportJobRepository struct {
	db  DBInterface
	now func() time.Time
}

// NewExportJobRepository wires a repository for managing export jobs.
func NewExportJobRepository(db DBInterface) ExportJobRepository {
	return &exportJobRepository{db: db, now: time.Now}
}

type exportJobRow struct {
	ID            uuid.UUID  `db:"id"`
	Owner         string     `db:"owner"`
	JobClass      string     `db:"job_class"`
	BatchName     string     `db:"batch_name"`
	Params        []byte     `db:"params"`
	RowsRequested int32      `db:"rows_requested"`
	RowsExported  int32      `db:"rows_exported"`
	BytesWritten  int64      `db:"bytes_written"`
	FilePath      *string    `db:"file_path"`
	FileMimeType  *string    `db:"file_mime_type"`
	FileByteSize  *int64     `db:"file_byte_size"`
	Status        string     `db:"status"`
	ErrorMessage  *string    `db:"error_message"`
	EnqueuedAt    time.Time  `db:"enqueued_at"`
	StartedAt     *time.Time `db:"started_at"`
	CompletedAt   *time.Time `db:"completed_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

func (r *exportJobRepository) Create(ctx context.Context, job domain.ExportJob) (domain.ExportJob, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	params, err := job.ParamsToJSON()
	if err != nil {
		return domain.ExportJob{}, fmt.Errorf("marshal export params: %w", err)
	}
	now := r.now().UTC()
	sql, args, err := psql.Insert("export_jobs").
		Columns("id", "owner", "job_class", "batch_name", "params", "rows_requested", "status", "enqueued_at", "updated_at").
		Values(job.ID, job.Owner, job.JobClass, job.BatchName, params, max(job.RowsRequested, 0), string(domain.ExportJobStatusPending), now, now).
		ToSql()
	if err != nil {
		return domain.ExportJob{}, fmt.Errorf("build export job insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == activeJobIndex {
			return domain.ExportJob{}, fmt.Errorf("insert export job for %s: %w", job.Owner, ErrExportJobActive)
		}
		return domain.ExportJob{}, fmt.Errorf("insert export job: %w", err)
	}
	return r.GetByID(ctx, job.ID)
}

func (r *exportJobRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.ExportJob, error) {
	sql, args, err := psql.Select(exportJobColumns...).From("export_jobs").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return domain.ExportJob{}, fmt.Errorf("build export job lookup: %w", err)
	}
	var row exportJobRow
	if err := pgxscan.Get(ctx, r.db, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return domain.ExportJob{}, fmt.Errorf("get export job %s: %w", id, ErrNotFound)
		}
		return domain.ExportJob{}, fmt.Errorf("get export job: %w", err)
	}
	return mapExportJob(row)
}

func (r *exportJobRepository) List(ctx context.Context, owner *string, statuses []domain.ExportJobStatus, limit int, offset int) ([]domain.ExportJob, error) {
	if len(statuses) == 0 {
		return []domain.ExportJob{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	qb := psql.Select(exportJobColumns...).
		From("export_jobs").
		Where(sq.Eq{"status": statusStrings(statuses)}).
		OrderBy("enqueued_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))
	if owner != nil {
		qb = qb.Where(sq.Eq{"owner": *owner})
	}
	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build export job list: %w", err)
	}
	return r.selectJobs(ctx, sql, args)
}

func (r *exportJobRepository) HasActive(ctx context.Context, owner string, jobClass string) (bool, error) {
	sql, args, err := psql.Select("COUNT(*)").
		From("export_jobs").
		Where(sq.Eq{
			"owner":     owner,
			"job_class": jobClass,
			"status":    statusStrings([]domain.ExportJobStatus{domain.ExportJobStatusPending, domain.ExportJobStatusRunning}),
		}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build active export lookup: %w", err)
	}
	var count int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count active exports: %w", err)
	}
	return count > 0, nil
}

func (r *exportJobRepository) MarkRunning(ctx context.Context, id uuid.UUID) error {
	now := r.now().UTC()
	return r.transition(ctx, psql.Update("export_jobs").
		Set("status", string(domain.ExportJobStatusRunning)).
		Set("started_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "status": string(domain.ExportJobStatusPending)}), "mark export job running")
}

func (r *exportJobRepository) UpdateProgress(ctx context.Context, id uuid.UUID, rowsExported int, bytesWritten int64) error {
	sql, args, err := psql.Update("export_jobs").
		Set("rows_exported", max(rowsExported, 0)).
		Set("bytes_written", max(bytesWritten, 0)).
		Set("updated_at", r.now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build export progress update: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update export progress: %w", err)
	}
	return nil
}

func (r *exportJobRepository) MarkCompleted(ctx context.Context, id uuid.UUID, result ExportResult) error {
	now := r.now().UTC()
	return r.transition(ctx, psql.Update("export_jobs").
		Set("status", string(domain.ExportJobStatusCompleted)).
		Set("rows_exported", max(result.RowsExported, 0)).
		Set("bytes_written", max(result.BytesWritten, 0)).
		Set("file_path", result.FilePath).
		Set("file_mime_type", result.FileMimeType).
		Set("file_byte_size", result.FileByteSize).
		Set("completed_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "status": string(domain.ExportJobStatusRunning)}), "mark export job completed")
}

func (r *exportJobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	return r.finish(ctx, id, domain.ExportJobStatusFailed, errorMessage, "mark export job failed")
}

func (r *exportJobRepository) MarkCancelled(ctx context.Context, id uuid.UUID, reason string) error {
	return r.finish(ctx, id, domain.ExportJobStatusCancelled, reason, "mark export job cancelled")
}

func (r *exportJobRepository) ListFinishedBefore(ctx context.Context, before time.Time) ([]domain.ExportJob, error) {
	sql, args, err := psql.Select(exportJobColumns...).
		From("export_jobs").
		Where(sq.Eq{"status": string(domain.ExportJobStatusCompleted)}).
		Where(sq.NotEq{"file_path": nil}).
		Where(sq.Lt{"completed_at": before}).
		OrderBy("completed_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build expired export lookup: %w", err)
	}
	return r.selectJobs(ctx, sql, args)
}

// ClearFile forgets the file of a job whose export has been swept from disk.
func (r *exportJobRepository) ClearFile(ctx context.Context, id uuid.UUID) error {
	sql, args, err := psql.Update("export_jobs").
		Set("file_path", nil).
		Set("file_byte_size", nil).
		Set("updated_at", r.now().UTC()).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build export file clear: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear export file: %w", err)
	}
	return nil
}

func (r *exportJobRepository) finish(ctx context.Context, id uuid.UUID, status domain.ExportJobStatus, message string, op string) error {
	var msg *string
	if message != "" {
		msg = &message
	}
	now := r.now().UTC()
	return r.transition(ctx, psql.Update("export_jobs").
		Set("status", string(status)).
		Set("error_message", msg).
		Set("completed_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id}).
		Where(sq.Eq{"status": statusStrings([]domain.ExportJobStatus{domain.ExportJobStatusPending, domain.ExportJobStatusRunning})}), op)
}

func (r *exportJobRepository) transition(ctx context.Context, qb sq.UpdateBuilder, op string) error {
	sql, args, err := qb.ToSql()
	if err != nil {
		return fmt.Errorf("build %s: %w", op, err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrExportJobStatusConflict
	}
	return nil
}

func (r *exportJobRepository) selectJobs(ctx context.Context, sql string, args []any) ([]domain.ExportJob, error) {
	var rows []exportJobRow
	if err := pgxscan.Select(ctx, r.db, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("list export jobs: %w", err)
	}
	jobs := make([]domain.ExportJob, 0, len(rows))
	for _, row := range rows {
		job, err := mapExportJob(row)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func mapExportJob(row exportJobRow) (domain.ExportJob, error) {
	params, err := domain.ExportJobParamsFromJSON(row.Params)
	if err != nil {
		return domain.ExportJob{}, fmt.Errorf("decode params for export job %s: %w", row.ID, err)
	}
	return domain.ExportJob{
		ID:            row.ID,
		Owner:         row.Owner,
		JobClass:      row.JobClass,
		BatchName:     row.BatchName,
		Params:        params,
		RowsRequested: int(row.RowsRequested),
		RowsExported:  int(row.RowsExported),
		BytesWritten:  row.BytesWritten,
		FilePath:      row.FilePath,
		FileMimeType:  row.FileMimeType,
		FileByteSize:  row.FileByteSize,
		Status:        domain.ExportJobStatus(row.Status),
		ErrorMessage:  row.ErrorMessage,
		EnqueuedAt:    row.EnqueuedAt,
		StartedAt:     row.StartedAt,
		CompletedAt:   row.CompletedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}

func statusStrings(statuses []domain.ExportJobStatus) []string {
	values := make([]string, len(statuses))
	for i, status := range statuses {
		values[i] = string(status)
	}
	return values
}
