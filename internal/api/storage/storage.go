package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eduhub/processing-be/internal/api/domain"
	"github.com/eduhub/processing-be/internal/api/model"
	"github.com/eduhub/processing-be/shared/postgresql"
	"github.com/jmoiron/sqlx"
)

// JobCursor is an opaque pagination position over (created_at, job_id)
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// JobFilter narrows and pages a job listing
type JobFilter struct {
	UserID   string
	JobType  string
	Status   string
	PageSize int
	Cursor   *JobCursor
}

type Storage struct {
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		db: pg.GetDB(),
	}
}

// CreateJob inserts a pending job. Inserting an idempotency key that
// already exists is not an error: the existing row is returned and
// `created` reports false so the caller skips re-dispatching.
func (s *Storage) CreateJob(ctx context.Context, job *model.Job) (created bool, err error) {
	query := `
		INSERT INTO jobs (
			job_id, idempotency_key, user_id, job_type,
			source_url, payload, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9
		)
		ON CONFLICT (idempotency_key) DO NOTHING
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		job.JobID,
		job.IdempotencyKey,
		job.UserID,
		job.JobType,
		job.SourceURL,
		job.Payload,
		job.Status,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		existing, err := s.GetJobByIdempotencyKey(ctx, job.IdempotencyKey)
		if err != nil {
			return false, err
		}
		*job = *existing
		return false, nil
	}

	return true, nil
}

// GetJobByID fetches one job row
func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*model.Job, error) {
	var job model.Job
	query := `
		SELECT
			job_id, idempotency_key, user_id, job_type,
			source_url, payload, status, error_message, created_at, updated_at
		FROM jobs
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// GetJobByIdempotencyKey fetches the job created under an idempotency key
func (s *Storage) GetJobByIdempotencyKey(ctx context.Context, key string) (*model.Job, error) {
	var job model.Job
	query := `
		SELECT
			job_id, idempotency_key, user_id, job_type,
			source_url, payload, status, error_message, created_at, updated_at
		FROM jobs
		WHERE idempotency_key = $1
	`

	err := s.db.GetContext(ctx, &job, query, key)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job by idempotency key: %w", err)
	}

	return &job, nil
}

// ListJobs returns up to PageSize+1 jobs matching the filter, newest first.
// The extra row tells the handler whether another page exists.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `
		SELECT
			job_id, idempotency_key, user_id, job_type,
			source_url, payload, status, error_message, created_at, updated_at
		FROM jobs
		WHERE 1=1
	`

	args := []interface{}{}
	argPos := 1

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argPos)
		args = append(args, filter.UserID)
		argPos++
	}
	if filter.JobType != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argPos)
		args = append(args, filter.JobType)
		argPos++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argPos)
		args = append(args, filter.Status)
		argPos++
	}
	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argPos, argPos+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argPos += 2
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, job_id DESC LIMIT $%d", argPos)
	args = append(args, filter.PageSize+1)

	var jobs []model.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// GetDocumentContent fetches the derived content for a document job
func (s *Storage) GetDocumentContent(ctx context.Context, jobID string) (*model.DocumentContent, error) {
	var content model.DocumentContent
	query := `
		SELECT job_id, title, content
		FROM document_contents
		WHERE job_id = $1
	`

	err := s.db.GetContext(ctx, &content, query, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get document content: %w", err)
	}

	return &content, nil
}

// GetTranscriptSegments fetches the transcript for a video job, in order
func (s *Storage) GetTranscriptSegments(ctx context.Context, jobID string) ([]model.TranscriptSegment, error) {
	var segments []model.TranscriptSegment
	query := `
		SELECT job_id, seq, start_ms, end_ms, body
		FROM transcript_segments
		WHERE job_id = $1
		ORDER BY seq ASC
	`

	if err := s.db.SelectContext(ctx, &segments, query, jobID); err != nil {
		return nil, fmt.Errorf("failed to get transcript segments: %w", err)
	}

	return segments, nil
}
