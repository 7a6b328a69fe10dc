package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/eduhub/processing-be/internal/worker/domain"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// GetJobByID retrieves a job from the database by its ID
func (s *Storage) GetJobByID(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		SELECT job_id, job_type, source_url, payload, status, worker_id
		FROM jobs
		WHERE job_id = $1
	`

	var job domain.Job
	var workerID sql.NullString

	err := s.db.QueryRowContext(ctx, query, jobID).Scan(
		&job.JobID,
		&job.JobType,
		&job.SourceURL,
		&job.Payload,
		&job.Status,
		&workerID,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if workerID.Valid {
		job.WorkerID = workerID.String
	}

	return &job, nil
}

// ClaimJob moves a job from pending to processing using optimistic locking.
// The WHERE predicate is what keeps the status machine forward-only: a job
// already claimed or already terminal matches no row.
func (s *Storage) ClaimJob(ctx context.Context, jobID, workerID string) (*domain.Job, error) {
	query := `
		UPDATE jobs
		SET status = $1,
		    worker_id = $2,
		    started_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $3
		  AND status = $4
		RETURNING job_id, job_type, source_url, payload
	`

	var job domain.Job
	err := s.db.QueryRowContext(ctx, query, domain.JobStatusProcessing, workerID, jobID, domain.JobStatusPending).Scan(
		&job.JobID,
		&job.JobType,
		&job.SourceURL,
		&job.Payload,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			s.logger.Warn("Failed to claim job - already claimed or not found",
				slog.String("job_id", jobID),
				slog.String("worker_id", workerID),
			)
			return nil, domain.ErrJobAlreadyClaimed
		}
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	job.Status = domain.JobStatusProcessing
	job.WorkerID = workerID

	s.logger.Info("Job claimed",
		slog.String("job_id", jobID),
		slog.String("worker_id", workerID),
		slog.String("job_type", job.JobType),
	)

	return &job, nil
}

// MarkCompleted moves a processing job to completed
func (s *Storage) MarkCompleted(ctx context.Context, jobID string) error {
	return s.markTerminal(ctx, jobID, domain.JobStatusCompleted, "")
}

// MarkFailed moves a processing job to failed and records the cause
func (s *Storage) MarkFailed(ctx context.Context, jobID, errorMsg string) error {
	return s.markTerminal(ctx, jobID, domain.JobStatusFailed, errorMsg)
}

func (s *Storage) markTerminal(ctx context.Context, jobID, status, errorMsg string) error {
	query := `
		UPDATE jobs
		SET status = $1,
		    error_message = $2,
		    completed_at = NOW(),
		    updated_at = NOW()
		WHERE job_id = $3
		  AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query, status, errorMsg, jobID, domain.JobStatusProcessing)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Job status update matched no row (job not in processing state)",
			slog.String("job_id", jobID),
			slog.String("status", status),
		)
		return nil
	}

	s.logger.Info("Job status updated",
		slog.String("job_id", jobID),
		slog.String("status", status),
	)

	return nil
}

// InsertDocumentContent stores the text extracted from an ingested document
func (s *Storage) InsertDocumentContent(ctx context.Context, jobID, title, content string) error {
	query := `
		INSERT INTO document_contents (job_id, title, content, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (job_id) DO UPDATE
		SET title = EXCLUDED.title,
		    content = EXCLUDED.content
	`

	if _, err := s.db.ExecContext(ctx, query, jobID, title, content); err != nil {
		return fmt.Errorf("failed to insert document content: %w", err)
	}

	s.logger.Debug("Document content stored",
		slog.String("job_id", jobID),
		slog.Int("content_bytes", len(content)),
	)

	return nil
}

// InsertTranscriptSegments stores the transcript produced for a video job.
// Segments for the job are replaced wholesale so a retried store step
// stays idempotent.
func (s *Storage) InsertTranscriptSegments(ctx context.Context, jobID string, segments []domain.TranscriptSegment) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM transcript_segments WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to clear transcript segments: %w", err)
	}

	insert := `
		INSERT INTO transcript_segments (job_id, seq, start_ms, end_ms, body, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`
	for _, seg := range segments {
		if _, err := tx.ExecContext(ctx, insert, jobID, seg.Seq, seg.StartMs, seg.EndMs, seg.Body); err != nil {
			return fmt.Errorf("failed to insert transcript segment %d: %w", seg.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transcript segments: %w", err)
	}

	s.logger.Debug("Transcript segments stored",
		slog.String("job_id", jobID),
		slog.Int("segments", len(segments)),
	)

	return nil
}
