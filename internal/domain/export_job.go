package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ExportJobStatus captures lifecycle state for an export job.
type ExportJobStatus string

const (
	ExportJobStatusPending   ExportJobStatus = "PENDING"
	ExportJobStatusRunning   ExportJobStatus = "RUNNING"
	ExportJobStatusCompleted ExportJobStatus = "COMPLETED"
	ExportJobStatusFailed    ExportJobStatus = "FAILED"
	ExportJobStatusCancelled ExportJobStatus = "CANCELLED"
)

// Active reports whether the job still occupies a worker slot or queue position.
func (s ExportJobStatus) Active() bool {
	return s == ExportJobStatusPending || s == ExportJobStatusRunning
}

// ExportJobParams is the snapshot of grid state taken when the export was requested.
type ExportJobParams struct {
	Filters        ProductFilter  `json:"filters"`
	Search         string         `json:"search,omitempty"`
	SelectedIDs    []int64        `json:"selected_ids,omitempty"`
	HeadingColumns []string       `json:"heading_columns"`
	FilePrefix     string         `json:"file_prefix"`
	Format         string         `json:"format"`
	CaseSensitive  bool           `json:"case_sensitive,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// ExportJob mirrors persisted export job metadata for the progress widget and workers.
type ExportJob struct {
	ID            uuid.UUID       `json:"id"`
	Owner         string          `json:"owner"`
	JobClass      string          `json:"job_class"`
	BatchName     string          `json:"batch_name"`
	Params        ExportJobParams `json:"params"`
	RowsRequested int             `json:"rows_requested"`
	RowsExported  int             `json:"rows_exported"`
	BytesWritten  int64           `json:"bytes_written"`
	FilePath      *string         `json:"file_path,omitempty"`
	FileMimeType  *string         `json:"file_mime_type,omitempty"`
	FileByteSize  *int64          `json:"file_byte_size,omitempty"`
	Status        ExportJobStatus `json:"status"`
	ErrorMessage  *string         `json:"error_message,omitempty"`
	EnqueuedAt    time.Time       `json:"enqueued_at"`
	StartedAt     *time.Time      `json:"started_at,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Progress returns completion in the 0..100 range.
func (j ExportJob) Progress() int {
	if j.Status == ExportJobStatusCompleted {
		return 100
	}
	if j.RowsRequested <= 0 {
		return 0
	}
	pct := j.RowsExported * 100 / j.RowsRequested
	if pct > 100 {
		return 100
	}
	return pct
}

// ParamsToJSON marshals the params snapshot into the JSONB layout stored in Postgres.
func (j ExportJob) ParamsToJSON() (json.RawMessage, error) {
	return json.Marshal(j.Params)
}

// ExportJobParamsFromJSON unmarshals a persisted params snapshot.
func ExportJobParamsFromJSON(data []byte) (ExportJobParams, error) {
	var params ExportJobParams
	if len(data) == 0 {
		return params, nil
	}
	if err := json.Unmarshal(data, &params); err != nil {
		return ExportJobParams{}, err
	}
	return params, nil
}
