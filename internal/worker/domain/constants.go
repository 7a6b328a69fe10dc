package domain

// Job status constants. Transitions only move forward:
// pending -> processing -> completed | failed.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Job type constants
const (
	JobTypeDocumentIngestion  = "document_ingestion"
	JobTypeVideoTranscription = "video_transcription"
)

// KnownJobType reports whether jobType is a type the worker can process
func KnownJobType(jobType string) bool {
	switch jobType {
	case JobTypeDocumentIngestion, JobTypeVideoTranscription:
		return true
	default:
		return false
	}
}
