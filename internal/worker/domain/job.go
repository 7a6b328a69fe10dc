package domain

// Job represents a job row loaded for worker processing
type Job struct {
	JobID     string
	JobType   string
	SourceURL string
	Payload   string // JSON string, schema owned by the education app
	Status    string
	WorkerID  string
}

// JobMessage represents a job dispatch message from the broker
type JobMessage struct {
	JobID       string `json:"job_id"`
	DeliveryTag uint64 `json:"-"`
}

// TranscriptSegment is one timed span of transcribed speech
type TranscriptSegment struct {
	Seq     int    `json:"seq"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	Body    string `json:"body"`
}
