package model

import (
	"database/sql"
	"time"
)

type Job struct {
	JobID          string         `db:"job_id"`
	IdempotencyKey string         `db:"idempotency_key"`
	UserID         string         `db:"user_id"`
	JobType        string         `db:"job_type"`
	SourceURL      string         `db:"source_url"`
	Payload        string         `db:"payload"`
	Status         string         `db:"status"`
	ErrorMessage   sql.NullString `db:"error_message"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type DocumentContent struct {
	JobID   string `db:"job_id"`
	Title   string `db:"title"`
	Content string `db:"content"`
}

type TranscriptSegment struct {
	JobID   string `db:"job_id"`
	Seq     int    `db:"seq"`
	StartMs int64  `db:"start_ms"`
	EndMs   int64  `db:"end_ms"`
	Body    string `db:"body"`
}
