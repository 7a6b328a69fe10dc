package worker

import (
	"context"
	"testing"
	"time"

	"github.com/eduhub/processing-be/internal/worker/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	blob []byte
	url  string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.url = url
	return f.blob, nil
}

type fakeTranscriber struct {
	segments []domain.TranscriptSegment
	media    []byte
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, media []byte) ([]domain.TranscriptSegment, error) {
	f.media = media
	return f.segments, nil
}

type fakeArtifactStore struct {
	docJobID   string
	docTitle   string
	docContent string
	segJobID   string
	segments   []domain.TranscriptSegment
}

func (f *fakeArtifactStore) InsertDocumentContent(ctx context.Context, jobID, title, content string) error {
	f.docJobID = jobID
	f.docTitle = title
	f.docContent = content
	return nil
}

func (f *fakeArtifactStore) InsertTranscriptSegments(ctx context.Context, jobID string, segments []domain.TranscriptSegment) error {
	f.segJobID = jobID
	f.segments = segments
	return nil
}

func runSteps(t *testing.T, steps []Step) {
	t.Helper()
	for _, step := range steps {
		require.NoError(t, step.Run(context.Background()), "step %s", step.Name)
	}
}

func stepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

func TestPlanDocumentIngestion(t *testing.T) {
	fetcher := &fakeFetcher{blob: []byte("  Chapter 1\r\nBasics  ")}
	artifacts := &fakeArtifactStore{}
	planner := NewPlanner(fetcher, &fakeTranscriber{}, artifacts, time.Minute, time.Minute)

	job := &domain.Job{
		JobID:     "doc-1",
		JobType:   domain.JobTypeDocumentIngestion,
		SourceURL: "http://storage.local/doc-1",
		Payload:   `{"title":"Go Basics"}`,
	}

	steps, err := planner.Plan(job)
	require.NoError(t, err)
	assert.Equal(t, []string{"download", "extract", "store"}, stepNames(steps))
	assert.Equal(t, time.Minute, steps[0].Timeout)
	assert.Zero(t, steps[1].Timeout)

	runSteps(t, steps)

	assert.Equal(t, "http://storage.local/doc-1", fetcher.url)
	assert.Equal(t, "doc-1", artifacts.docJobID)
	assert.Equal(t, "Go Basics", artifacts.docTitle)
	assert.Equal(t, "Chapter 1\nBasics", artifacts.docContent)
}

func TestPlanVideoTranscription(t *testing.T) {
	segments := []domain.TranscriptSegment{
		{Seq: 0, StartMs: 0, EndMs: 4000, Body: "Welcome to the course"},
		{Seq: 1, StartMs: 4000, EndMs: 9000, Body: "Today we cover goroutines"},
	}

	fetcher := &fakeFetcher{blob: []byte("media-bytes")}
	transcriber := &fakeTranscriber{segments: segments}
	artifacts := &fakeArtifactStore{}
	planner := NewPlanner(fetcher, transcriber, artifacts, time.Minute, 10*time.Minute)

	job := &domain.Job{
		JobID:     "vid-1",
		JobType:   domain.JobTypeVideoTranscription,
		SourceURL: "http://storage.local/vid-1",
	}

	steps, err := planner.Plan(job)
	require.NoError(t, err)
	assert.Equal(t, []string{"download", "transcribe", "store"}, stepNames(steps))
	assert.Equal(t, 10*time.Minute, steps[1].Timeout)

	runSteps(t, steps)

	assert.Equal(t, []byte("media-bytes"), transcriber.media)
	assert.Equal(t, "vid-1", artifacts.segJobID)
	assert.Equal(t, segments, artifacts.segments)
}

func TestPlanRejectsUnknownJobType(t *testing.T) {
	planner := NewPlanner(&fakeFetcher{}, &fakeTranscriber{}, &fakeArtifactStore{}, time.Minute, time.Minute)

	_, err := planner.Plan(&domain.Job{JobID: "x", JobType: "image_resize"})
	require.ErrorIs(t, err, domain.ErrUnknownJobType)
}

func TestPlanRejectsMalformedPayload(t *testing.T) {
	planner := NewPlanner(&fakeFetcher{}, &fakeTranscriber{}, &fakeArtifactStore{}, time.Minute, time.Minute)

	_, err := planner.Plan(&domain.Job{
		JobID:   "x",
		JobType: domain.JobTypeDocumentIngestion,
		Payload: "{not json",
	})
	require.ErrorIs(t, err, domain.ErrInvalidPayload)
}
