package dto

type CreateJobRequest struct {
	IdempotencyKey string `json:"idempotency_key" binding:"required"`
	UserID         string `json:"user_id" binding:"required"`
	JobType        string `json:"job_type" binding:"required"`
	SourceURL      string `json:"source_url" binding:"required,url"`
	Payload        string `json:"payload"`
}

type ListJobsRequest struct {
	UserID   string `form:"user_id"`
	JobType  string `form:"job_type"`
	Status   string `form:"status"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

type ListJobsResponse struct {
	Jobs       []JobDTO `json:"jobs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

type JobDTO struct {
	JobID          string `json:"job_id"`
	IdempotencyKey string `json:"idempotency_key"`
	UserID         string `json:"user_id"`
	JobType        string `json:"job_type"`
	SourceURL      string `json:"source_url"`
	Payload        string `json:"payload,omitempty"`
	Status         string `json:"status"`
	ErrorMessage   string `json:"error_message,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type SegmentDTO struct {
	Seq     int    `json:"seq"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Body    string `json:"body"`
}

type ArtifactsResponse struct {
	JobID    string       `json:"job_id"`
	JobType  string       `json:"job_type"`
	Title    string       `json:"title,omitempty"`
	Content  string       `json:"content,omitempty"`
	Segments []SegmentDTO `json:"segments,omitempty"`
}
