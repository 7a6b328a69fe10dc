package domain

import (
	"errors"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

const (
	JobTypeDocumentIngestion  = "document_ingestion"
	JobTypeVideoTranscription = "video_transcription"
)

var (
	ErrJobNotFound = errors.New("job not found")
)

// ValidJobType reports whether the API accepts jobs of this type
func ValidJobType(jobType string) bool {
	switch jobType {
	case JobTypeDocumentIngestion, JobTypeVideoTranscription:
		return true
	default:
		return false
	}
}
