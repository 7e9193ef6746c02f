package export

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/rpattn/adminpanel/internal/auth"
	"github.com/rpattn/adminpanel/internal/domain"
	"github.com/rpattn/adminpanel/internal/events"
	"github.com/rpattn/adminpanel/internal/i18n"
	"github.com/rpattn/adminpanel/internal/metrics"
	"github.com/rpattn/adminpanel/internal/repository"
	"github.com/rpattn/adminpanel/pkg/logger"
)

// ProgressEventName is published whenever a job changes state or advances.
const ProgressEventName = "exportProgress"

var (
	errJobNotRunnable = errors.New("export job is no longer runnable")

	// ErrJobNotCancellable is returned when a finished job is cancelled.
	ErrJobNotCancellable = errors.New("export job cannot be cancelled")
	// ErrFileUnavailable is returned when a job has no downloadable file.
	ErrFileUnavailable = errors.New("export file is unavailable")
)

// RowSource produces the formatted rows of one job class, a page at a time.
// Returning fewer than limit rows ends the export.
type RowSource interface {
	Fetch(ctx context.Context, params domain.ExportJobParams, limit, offset int) ([][]string, error)
}

// RowSourceFunc adapts a function to RowSource.
type RowSourceFunc func(ctx context.Context, params domain.ExportJobParams, limit, offset int) ([][]string, error)

func (f RowSourceFunc) Fetch(ctx context.Context, params domain.ExportJobParams, limit, offset int) ([][]string, error) {
	return f(ctx, params, limit, offset)
}

// Request is what a grid hands over when the user asks for an export.
type Request struct {
	Total         int
	Filters       domain.ProductFilter
	SelectedIDs   []int64
	Search        string
	HeadingColumn string
	FilePrefix    string
	JobClass      string
	BatchName     string
	CaseSensitive bool
	Extra         map[string]any
}

// Result reports whether the job was accepted. Message is user facing.
type Result struct {
	Status  bool          `json:"status"`
	Message string        `json:"message,omitempty"`
	Data    *ProgressData `json:"data,omitempty"`
}

// ProgressData is the payload the progress widget renders.
type ProgressData struct {
	JobID         uuid.UUID              `json:"jobId"`
	Owner         string                 `json:"owner"`
	JobClass      string                 `json:"jobClass"`
	BatchName     string                 `json:"batchName"`
	Status        domain.ExportJobStatus `json:"status"`
	Progress      int                    `json:"progress"`
	RowsRequested int                    `json:"rowsRequested"`
	RowsExported  int                    `json:"rowsExported"`
	DownloadURL   *string                `json:"downloadUrl,omitempty"`
	ErrorMessage  *string                `json:"errorMessage,omitempty"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// Service queues export jobs and runs them on a bounded worker pool.
type Service struct {
	jobs      repository.ExportJobRepository
	publisher events.Dispatcher
	metrics   *metrics.Metrics
	log       logger.Logger

	classesMu sync.RWMutex
	classes   map[string]RowSource

	exportDir         string
	format            string
	pageSize          int
	workers           int
	jobTimeout        time.Duration
	retention         time.Duration
	retentionSchedule string
	now               func() time.Time

	downloadSigner *downloadSigner
	downloadSecret []byte
	downloadTTL    time.Duration

	queue         chan domain.ExportJob
	workerCancels sync.Map // map[uuid.UUID]context.CancelFunc

	lifecycleMu sync.Mutex
	stop        context.CancelFunc
	group       *errgroup.Group
	scheduler   *cron.Cron
}

type Option func(*Service)

func WithExportDirectory(dir string) Option {
	return func(s *Service) {
		if strings.TrimSpace(dir) != "" {
			s.exportDir = filepath.Clean(dir)
		}
	}
}

func WithFormat(format string) Option {
	return func(s *Service) {
		if format == FormatCSV || format == FormatXLSX {
			s.format = format
		}
	}
}

func WithJobTimeout(timeout time.Duration) Option {
	return func(s *Service) {
		if timeout > 0 {
			s.jobTimeout = timeout
		}
	}
}

func WithPageSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.pageSize = size
		}
	}
}

// WithWorkers bounds concurrency and the number of jobs waiting for a worker.
func WithWorkers(workers, queueSize int) Option {
	return func(s *Service) {
		if workers > 0 {
			s.workers = workers
		}
		if queueSize > 0 {
			s.queue = make(chan domain.ExportJob, queueSize)
		}
	}
}

// WithDownloadToken customizes the signing secret and TTL of download links.
func WithDownloadToken(secret string, ttl time.Duration) Option {
	return func(s *Service) {
		if secret != "" {
			s.downloadSecret = []byte(secret)
		}
		if ttl > 0 {
			s.downloadTTL = ttl
		}
	}
}

// WithRetention removes files older than retention on the given cron schedule.
func WithRetention(retention time.Duration, schedule string) Option {
	return func(s *Service) {
		s.retention = retention
		if strings.TrimSpace(schedule) != "" {
			s.retentionSchedule = schedule
		}
	}
}

// WithPublisher publishes progress events, typically to redis.
func WithPublisher(p events.Dispatcher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(jobs repository.ExportJobRepository, opts ...Option) *Service {
	service := &Service{
		jobs:              jobs,
		classes:           map[string]RowSource{},
		log:               logger.Default(),
		exportDir:         filepath.Join(os.TempDir(), "admin-exports"),
		format:            FormatCSV,
		pageSize:          1000,
		workers:           2,
		jobTimeout:        30 * time.Minute,
		retentionSchedule: "@every 1h",
		downloadTTL:       5 * time.Minute,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	if service.queue == nil {
		service.queue = make(chan domain.ExportJob, 64)
	}
	if service.now == nil {
		service.now = time.Now
	}
	service.downloadSigner = newDownloadSigner(service.downloadSecret, service.downloadTTL)
	service.log = service.log.With("component", "export")
	return service
}

// RegisterJobClass makes name available to RunExportJob.
func (s *Service) RegisterJobClass(name string, source RowSource) {
	s.classesMu.Lock()
	defer s.classesMu.Unlock()
	s.classes[name] = source
}

func (s *Service) rowSource(name string) (RowSource, bool) {
	s.classesMu.RLock()
	defer s.classesMu.RUnlock()
	source, ok := s.classes[name]
	return source, ok
}

// RunExportJob validates and queues an export for the principal on ctx.
// Business rejections come back as Result{Status: false}; error is reserved
// for infrastructure failures.
func (s *Service) RunExportJob(ctx context.Context, req Request) (Result, error) {
	loc := i18n.FromContext(ctx)
	owner := ""
	if principal, ok := auth.PrincipalFromContext(ctx); ok {
		owner = principal.UserID
	}

	rows := req.Total
	if len(req.SelectedIDs) > 0 {
		rows = len(req.SelectedIDs)
	}
	if rows <= 0 {
		return s.reject(req.JobClass, i18n.T(loc, i18n.ExportNothingToExport)), nil
	}
	if _, ok := s.rowSource(req.JobClass); !ok {
		return s.reject(req.JobClass, i18n.T(loc, i18n.ExportUnknownJob)), nil
	}
	active, err := s.jobs.HasActive(ctx, owner, req.JobClass)
	if err != nil {
		return Result{}, fmt.Errorf("check running exports: %w", err)
	}
	if active {
		return s.reject(req.JobClass, i18n.T(loc, i18n.ExportAlreadyRunning)), nil
	}
	if len(s.queue) >= cap(s.queue) {
		return s.reject(req.JobClass, i18n.T(loc, i18n.ExportQueueFull)), nil
	}

	job := domain.ExportJob{
		Owner:     owner,
		JobClass:  req.JobClass,
		BatchName: req.BatchName,
		Params: domain.ExportJobParams{
			Filters:        req.Filters,
			Search:         req.Search,
			SelectedIDs:    append([]int64(nil), req.SelectedIDs...),
			HeadingColumns: splitHeading(req.HeadingColumn),
			FilePrefix:     req.FilePrefix,
			Format:         s.format,
			CaseSensitive:  req.CaseSensitive,
			Extra:          req.Extra,
		},
		RowsRequested: rows,
	}
	persisted, err := s.jobs.Create(ctx, job)
	if errors.Is(err, repository.ErrExportJobActive) {
		return s.reject(req.JobClass, i18n.T(loc, i18n.ExportAlreadyRunning)), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("create export job: %w", err)
	}
	if !s.enqueue(persisted) {
		if err := s.jobs.MarkCancelled(context.WithoutCancel(ctx), persisted.ID, "queue full"); err != nil {
			s.log.Warn("failed to cancel unqueued export", "job", persisted.ID, "error", err)
		}
		return s.reject(req.JobClass, i18n.T(loc, i18n.ExportQueueFull)), nil
	}
	s.metrics.Interaction("export", "run", "ok")
	data := s.progressData(persisted)
	return Result{Status: true, Data: &data}, nil
}

func (s *Service) reject(jobClass, message string) Result {
	s.metrics.Interaction("export", "run", "rejected")
	s.log.Debug("export rejected", "job_class", jobClass, "reason", message)
	return Result{Status: false, Message: message}
}

func (s *Service) enqueue(job domain.ExportJob) bool {
	select {
	case s.queue <- job:
		return true
	default:
		return false
	}
}

func splitHeading(heading string) []string {
	var columns []string
	for _, part := range strings.Split(heading, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			columns = append(columns, trimmed)
		}
	}
	return columns
}

// Start launches the worker pool and the retention schedule. Jobs left
// PENDING by a previous process are queued again; RUNNING ones are failed.
func (s *Service) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.group != nil {
		return errors.New("export service already started")
	}
	if err := s.resume(ctx); err != nil {
		return err
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	group, groupCtx := errgroup.WithContext(runCtx)
	for i := 0; i < s.workers; i++ {
		group.Go(func() error {
			s.work(groupCtx)
			return nil
		})
	}
	if s.retention > 0 {
		scheduler := cron.New()
		if _, err := scheduler.AddFunc(s.retentionSchedule, func() {
			if _, err := s.SweepExpired(groupCtx); err != nil {
				s.log.Error("export retention sweep failed", "error", err)
			}
		}); err != nil {
			cancel()
			_ = group.Wait()
			return fmt.Errorf("schedule export retention %q: %w", s.retentionSchedule, err)
		}
		scheduler.Start()
		s.scheduler = scheduler
	}
	s.stop = cancel
	s.group = group
	s.log.Info("export workers started", "workers", s.workers, "queue", cap(s.queue))
	return nil
}

func (s *Service) resume(ctx context.Context) error {
	running, err := s.jobs.List(ctx, nil, []domain.ExportJobStatus{domain.ExportJobStatusRunning}, cap(s.queue), 0)
	if err != nil {
		return fmt.Errorf("list interrupted exports: %w", err)
	}
	for _, job := range running {
		if err := s.jobs.MarkFailed(ctx, job.ID, "interrupted by restart"); err != nil && !errors.Is(err, repository.ErrExportJobStatusConflict) {
			return fmt.Errorf("fail interrupted export %s: %w", job.ID, err)
		}
	}
	pending, err := s.jobs.List(ctx, nil, []domain.ExportJobStatus{domain.ExportJobStatusPending}, cap(s.queue), 0)
	if err != nil {
		return fmt.Errorf("list pending exports: %w", err)
	}
	for _, job := range pending {
		if !s.enqueue(job) {
			break
		}
	}
	return nil
}

// Stop cancels running jobs and waits for workers and the scheduler.
func (s *Service) Stop(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.group == nil {
		return nil
	}
	var schedulerDone context.Context
	if s.scheduler != nil {
		schedulerDone = s.scheduler.Stop()
	}
	s.stop()
	done := make(chan error, 1)
	go func() { done <- s.group.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		return ctx.Err()
	}
	if schedulerDone != nil {
		select {
		case <-schedulerDone.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.group, s.stop, s.scheduler = nil, nil, nil
	return nil
}

func (s *Service) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-s.queue:
			s.process(ctx, job)
		}
	}
}

func (s *Service) process(parent context.Context, job domain.ExportJob) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.jobTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, s.jobTimeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}
	s.workerCancels.Store(job.ID, cancel)
	defer func() {
		cancel()
		s.workerCancels.Delete(job.ID)
	}()
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("panic while processing export", "job", job.ID, "panic", rec, "stack", string(debug.Stack()))
			s.failJob(job, fmt.Errorf("panic: %v", rec))
		}
	}()

	err := s.runJob(ctx, job)
	switch {
	case err == nil:
	case errors.Is(err, errJobNotRunnable):
		s.log.Debug("export not runnable, skipping", "job", job.ID)
	case errors.Is(err, context.DeadlineExceeded):
		s.failJob(job, fmt.Errorf("export timed out after %s", s.jobTimeout))
	case errors.Is(err, context.Canceled):
		if parent.Err() != nil {
			s.failJob(job, errors.New("export interrupted by shutdown"))
			return
		}
		s.log.Info("export cancelled", "job", job.ID)
		s.publishLatest(job.ID)
	default:
		s.failJob(job, err)
	}
}

func (s *Service) failJob(job domain.ExportJob, err error) {
	ctx := context.Background()
	if markErr := s.jobs.MarkFailed(ctx, job.ID, truncateError(err)); markErr != nil {
		if !errors.Is(markErr, repository.ErrExportJobStatusConflict) {
			s.log.Error("failed to mark export failed", "job", job.ID, "error", markErr, "cause", err)
		}
		return
	}
	s.log.Error("export failed", "job", job.ID, "error", err)
	s.metrics.ExportFinished(job.JobClass, string(domain.ExportJobStatusFailed), 0)
	s.publishLatest(job.ID)
}

func (s *Service) runJob(ctx context.Context, job domain.ExportJob) error {
	source, ok := s.rowSource(job.JobClass)
	if !ok {
		return fmt.Errorf("no row source registered for %q", job.JobClass)
	}
	if err := s.jobs.MarkRunning(ctx, job.ID); err != nil {
		if errors.Is(err, repository.ErrExportJobStatusConflict) {
			return errJobNotRunnable
		}
		return fmt.Errorf("mark export job running: %w", err)
	}
	job.Status = domain.ExportJobStatusRunning
	s.publish(ctx, job)

	if err := s.ensureExportDirectory(); err != nil {
		return err
	}
	format := job.Params.Format
	if format == "" {
		format = s.format
	}
	tempFile, err := os.CreateTemp(s.exportDir, fmt.Sprintf("%s-*.%s", job.ID, fileExtension(format)))
	if err != nil {
		return fmt.Errorf("create temp export file: %w", err)
	}
	tempPath := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = tempFile.Close()
			_ = os.Remove(tempPath)
		}
	}()

	sheet, err := newSheetWriter(format, tempFile)
	if err != nil {
		return err
	}
	if len(job.Params.HeadingColumns) > 0 {
		if err := sheet.WriteRow(job.Params.HeadingColumns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	offset := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rows, err := source.Fetch(ctx, job.Params, s.pageSize, offset)
		if err != nil {
			return fmt.Errorf("fetch export rows: %w", err)
		}
		for _, row := range rows {
			if err := sheet.WriteRow(row); err != nil {
				return fmt.Errorf("write export row: %w", err)
			}
		}
		job.RowsExported += len(rows)
		if err := sheet.Flush(); err != nil {
			return err
		}
		job.BytesWritten = sheet.BytesWritten()
		if err := s.jobs.UpdateProgress(ctx, job.ID, job.RowsExported, job.BytesWritten); err != nil {
			return fmt.Errorf("update export progress: %w", err)
		}
		s.publish(ctx, job)
		if len(rows) < s.pageSize || (job.RowsRequested > 0 && job.RowsExported >= job.RowsRequested) {
			break
		}
		offset += s.pageSize
	}

	if err := sheet.Close(); err != nil {
		return err
	}
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync export file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	finalPath := filepath.Join(s.exportDir, s.finalFileName(job, format))
	if err := os.Rename(tempPath, finalPath); err != nil {
		return fmt.Errorf("promote export file: %w", err)
	}
	cleanup = false
	info, err := os.Stat(finalPath)
	if err != nil {
		return fmt.Errorf("stat export file: %w", err)
	}
	size := info.Size()
	mime := mimeType(format)
	bytesWritten := sheet.BytesWritten()
	if bytesWritten == 0 {
		bytesWritten = size
	}
	if err := s.jobs.MarkCompleted(ctx, job.ID, repository.ExportResult{
		RowsExported: job.RowsExported,
		BytesWritten: bytesWritten,
		FilePath:     &finalPath,
		FileMimeType: &mime,
		FileByteSize: &size,
	}); err != nil {
		_ = os.Remove(finalPath)
		if errors.Is(err, repository.ErrExportJobStatusConflict) {
			return errJobNotRunnable
		}
		return fmt.Errorf("mark export completed: %w", err)
	}
	s.log.Info("export completed", "job", job.ID, "rows", job.RowsExported, "path", finalPath)
	s.metrics.ExportFinished(job.JobClass, string(domain.ExportJobStatusCompleted), job.RowsExported)
	s.publishLatest(job.ID)
	return nil
}

func (s *Service) publish(ctx context.Context, job domain.ExportJob) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Dispatch(ctx, events.Event{Name: ProgressEventName, Payload: s.progressData(job)}); err != nil {
		s.log.Warn("failed to publish export progress", "job", job.ID, "error", err)
	}
}

// publishLatest reloads the job so terminal events carry persisted state.
func (s *Service) publishLatest(id uuid.UUID) {
	if s.publisher == nil {
		return
	}
	ctx := context.Background()
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		s.log.Warn("failed to reload export for progress", "job", id, "error", err)
		return
	}
	s.publish(ctx, job)
}

func (s *Service) progressData(job domain.ExportJob) ProgressData {
	data := ProgressData{
		JobID:         job.ID,
		Owner:         job.Owner,
		JobClass:      job.JobClass,
		BatchName:     job.BatchName,
		Status:        job.Status,
		Progress:      job.Progress(),
		RowsRequested: job.RowsRequested,
		RowsExported:  job.RowsExported,
		ErrorMessage:  job.ErrorMessage,
		UpdatedAt:     job.UpdatedAt,
	}
	data.DownloadURL = s.BuildDownloadURL(job)
	return data
}

// GetJob returns a job. When ctx carries a principal, jobs owned by someone
// else are reported as not found.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (domain.ExportJob, error) {
	if id == uuid.Nil {
		return domain.ExportJob{}, errors.New("job ID is required")
	}
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return domain.ExportJob{}, err
	}
	if principal, ok := auth.PrincipalFromContext(ctx); ok && principal.UserID != job.Owner {
		return domain.ExportJob{}, fmt.Errorf("get export job %s: %w", id, repository.ErrNotFound)
	}
	return job, nil
}

// Progress returns the widget payload for a job.
func (s *Service) Progress(ctx context.Context, id uuid.UUID) (ProgressData, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return ProgressData{}, err
	}
	return s.progressData(job), nil
}

// ListJobs lists the principal's jobs, newest first.
func (s *Service) ListJobs(ctx context.Context, statuses []domain.ExportJobStatus, limit, offset int) ([]domain.ExportJob, error) {
	var owner *string
	if principal, ok := auth.PrincipalFromContext(ctx); ok {
		owner = &principal.UserID
	}
	return s.jobs.List(ctx, owner, statuses, limit, offset)
}

// BuildDownloadURL signs a short-lived download URL for completed export files.
func (s *Service) BuildDownloadURL(job domain.ExportJob) *string {
	if job.Status != domain.ExportJobStatusCompleted {
		return nil
	}
	if job.FilePath == nil || strings.TrimSpace(*job.FilePath) == "" {
		return nil
	}
	values := url.Values{}
	values.Set("token", s.downloadSigner.Sign(job.ID, s.now()))
	download := fmt.Sprintf("/exports/files/%s?%s", job.ID, values.Encode())
	return &download
}

// ValidateDownloadToken ensures the token is valid for the given job.
func (s *Service) ValidateDownloadToken(jobID uuid.UUID, token string) error {
	return s.downloadSigner.Verify(jobID, token, s.now())
}

// OpenJobFile opens the completed export file for streaming to the client.
func (s *Service) OpenJobFile(job domain.ExportJob) (*os.File, error) {
	if job.Status != domain.ExportJobStatusCompleted {
		return nil, fmt.Errorf("export is %s: %w", job.Status, ErrFileUnavailable)
	}
	if job.FilePath == nil || strings.TrimSpace(*job.FilePath) == "" {
		return nil, ErrFileUnavailable
	}
	file, err := os.Open(*job.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrFileUnavailable
		}
		return nil, fmt.Errorf("open export file: %w", err)
	}
	return file, nil
}

// CancelJob requests cancellation for a pending or running export job.
func (s *Service) CancelJob(ctx context.Context, id uuid.UUID) (domain.ExportJob, error) {
	job, err := s.GetJob(ctx, id)
	if err != nil {
		return domain.ExportJob{}, err
	}
	if !job.Status.Active() {
		return job, fmt.Errorf("export job in status %s: %w", job.Status, ErrJobNotCancellable)
	}
	if err := s.jobs.MarkCancelled(ctx, id, "Cancelled by user"); err != nil {
		if errors.Is(err, repository.ErrExportJobStatusConflict) {
			return s.jobs.GetByID(ctx, id)
		}
		return domain.ExportJob{}, err
	}
	if cancel, ok := s.workerCancels.LoadAndDelete(id); ok {
		if fn, okCast := cancel.(context.CancelFunc); okCast {
			fn()
		}
	}
	s.metrics.ExportFinished(job.JobClass, string(domain.ExportJobStatusCancelled), 0)
	updated, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return domain.ExportJob{}, err
	}
	s.publish(ctx, updated)
	return updated, nil
}

// SweepExpired deletes export files completed before the retention window.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	expired, err := s.jobs.ListFinishedBefore(ctx, s.now().Add(-s.retention))
	if err != nil {
		return 0, fmt.Errorf("list expired exports: %w", err)
	}
	removed := 0
	for _, job := range expired {
		if job.FilePath != nil {
			if err := os.Remove(*job.FilePath); err != nil && !errors.Is(err, os.ErrNotExist) {
				s.log.Warn("failed to remove expired export", "job", job.ID, "path", *job.FilePath, "error", err)
				continue
			}
		}
		if err := s.jobs.ClearFile(ctx, job.ID); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		s.log.Info("expired exports removed", "count", removed)
	}
	return removed, nil
}

func (s *Service) ensureExportDirectory() error {
	if strings.TrimSpace(s.exportDir) == "" {
		return errors.New("export directory is not configured")
	}
	if err := os.MkdirAll(s.exportDir, 0o755); err != nil {
		return fmt.Errorf("ensure export directory: %w", err)
	}
	return nil
}

func (s *Service) finalFileName(job domain.ExportJob, format string) string {
	prefix := sanitizeFileComponent(job.Params.FilePrefix)
	if prefix == "" {
		prefix = "export_"
	}
	stamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s%s_%s.%s", prefix, stamp, job.ID.String()[:8], fileExtension(format))
}

func sanitizeFileComponent(value string) string {
	value = strings.TrimSpace(value)
	var builder strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			builder.WriteRune(r)
		default:
			builder.WriteRune('-')
		}
	}
	return builder.String()
}

func truncateError(err error) string {
	if err == nil {
		return ""
	}
	const maxLen = 512
	msg := err.Error()
	if len(msg) > maxLen {
		return msg[:maxLen]
	}
	return msg
}
