package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eduhub/processing-be/internal/worker/domain"
)

// Fetcher downloads a stored source blob
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Transcriber turns downloaded media into timed transcript segments
type Transcriber interface {
	Transcribe(ctx context.Context, media []byte) ([]domain.TranscriptSegment, error)
}

// ArtifactStore persists the derived content a job produces
type ArtifactStore interface {
	InsertDocumentContent(ctx context.Context, jobID, title, content string) error
	InsertTranscriptSegments(ctx context.Context, jobID string, segments []domain.TranscriptSegment) error
}

// jobPayload is the slice of the app-owned payload the worker reads.
// Everything else in the payload stays opaque.
type jobPayload struct {
	Title string `json:"title"`
}

// Planner builds the ordered step sequence for each job type
type Planner struct {
	fetcher           Fetcher
	transcriber       Transcriber
	artifacts         ArtifactStore
	downloadTimeout   time.Duration
	transcribeTimeout time.Duration
}

// NewPlanner creates a step planner
func NewPlanner(fetcher Fetcher, transcriber Transcriber, artifacts ArtifactStore, downloadTimeout, transcribeTimeout time.Duration) *Planner {
	return &Planner{
		fetcher:           fetcher,
		transcriber:       transcriber,
		artifacts:         artifacts,
		downloadTimeout:   downloadTimeout,
		transcribeTimeout: transcribeTimeout,
	}
}

// Plan returns the steps for a claimed job, in execution order
func (p *Planner) Plan(job *domain.Job) ([]Step, error) {
	var payload jobPayload
	if job.Payload != "" {
		if err := json.Unmarshal([]byte(job.Payload), &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
	}

	switch job.JobType {
	case domain.JobTypeDocumentIngestion:
		return p.documentSteps(job, payload), nil
	case domain.JobTypeVideoTranscription:
		return p.videoSteps(job), nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownJobType, job.JobType)
	}
}

// documentSteps: download the source blob, extract its text, store the
// derived content row. The blob flows between steps through the closure.
func (p *Planner) documentSteps(job *domain.Job, payload jobPayload) []Step {
	var blob []byte
	var content string

	return []Step{
		{
			Name:    "download",
			Timeout: p.downloadTimeout,
			Run: func(ctx context.Context) error {
				var err error
				blob, err = p.fetcher.Fetch(ctx, job.SourceURL)
				return err
			},
		},
		{
			Name: "extract",
			Run: func(ctx context.Context) error {
				var err error
				content, err = ExtractText(blob)
				return err
			},
		},
		{
			Name: "store",
			Run: func(ctx context.Context) error {
				return p.artifacts.InsertDocumentContent(ctx, job.JobID, payload.Title, content)
			},
		},
	}
}

// videoSteps: download the media, transcribe it through the external
// service, store the transcript segments.
func (p *Planner) videoSteps(job *domain.Job) []Step {
	var blob []byte
	var segments []domain.TranscriptSegment

	return []Step{
		{
			Name:    "download",
			Timeout: p.downloadTimeout,
			Run: func(ctx context.Context) error {
				var err error
				blob, err = p.fetcher.Fetch(ctx, job.SourceURL)
				return err
			},
		},
		{
			Name:    "transcribe",
			Timeout: p.transcribeTimeout,
			Run: func(ctx context.Context) error {
				var err error
				segments, err = p.transcriber.Transcribe(ctx, blob)
				return err
			},
		},
		{
			Name: "store",
			Run: func(ctx context.Context) error {
				return p.artifacts.InsertTranscriptSegments(ctx, job.JobID, segments)
			},
		},
	}
}
