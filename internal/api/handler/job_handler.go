package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/eduhub/processing-be/internal/api/domain"
	"github.com/eduhub/processing-be/internal/api/dto"
	"github.com/eduhub/processing-be/internal/api/model"
	"github.com/eduhub/processing-be/internal/api/storage"
	"github.com/eduhub/processing-be/internal/resilience"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateJob handles POST /api/v1/jobs
// Creates a new processing job and dispatches it to the worker queue
func (h *JobHandler) CreateJob(c *gin.Context) {
	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	if !domain.ValidJobType(req.JobType) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Unknown job_type",
		})
		return
	}

	now := time.Now()
	job := model.Job{
		JobID:          uuid.New().String(),
		IdempotencyKey: req.IdempotencyKey,
		UserID:         req.UserID,
		JobType:        req.JobType,
		SourceURL:      req.SourceURL,
		Payload:        req.Payload,
		Status:         domain.JobStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := h.storage.CreateJob(c.Request.Context(), &job)
	if err != nil {
		h.logger.Error("Failed to create job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create job",
		})
		return
	}

	// Replayed idempotency key: return the job created the first time
	// around without dispatching it again
	if !created {
		h.logger.Info("Idempotency key replayed",
			slog.String("idempotency_key", req.IdempotencyKey),
			slog.String("job_id", job.JobID),
		)
		c.JSON(http.StatusOK, toJobDTO(&job))
		return
	}

	if err := h.publishJobMessage(c.Request.Context(), job.JobID); err != nil {
		h.logger.Error("Failed to dispatch job",
			slog.String("job_id", job.JobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Job created but could not be dispatched",
			"job_id": job.JobID,
		})
		return
	}

	h.logger.Info("Job created",
		slog.String("job_id", job.JobID),
		slog.String("job_type", job.JobType),
	)

	c.JSON(http.StatusCreated, toJobDTO(&job))
}

// publishJobMessage pushes the job id onto the work queue. Broker
// hiccups are retried with backoff before the request fails.
func (h *JobHandler) publishJobMessage(ctx context.Context, jobID string) error {
	body, err := json.Marshal(gin.H{"job_id": jobID})
	if err != nil {
		return err
	}

	onRetry := func(attempt int, err error, delay time.Duration) {
		h.logger.Warn("Retrying job dispatch",
			slog.String("job_id", jobID),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
	}

	return resilience.Do(ctx, h.publishPolicy, func(ctx context.Context) error {
		return h.rabbitClient.Publish(ctx, body, "application/json")
	}, onRetry)
}

// GetJob handles GET /api/v1/jobs/:job_id
// Retrieves detailed information about a specific job
func (h *JobHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, toJobDTO(job))
}

// ListJobs handles GET /api/v1/jobs
// Lists jobs with optional filtering and cursor pagination
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = 20
	}
	if req.PageSize > 100 {
		req.PageSize = 100
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid cursor",
		})
		return
	}

	filter := storage.JobFilter{
		UserID:   req.UserID,
		JobType:  req.JobType,
		Status:   req.Status,
		PageSize: req.PageSize,
		Cursor:   cursor,
	}

	jobs, err := h.storage.ListJobs(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	jobResponse := make([]dto.JobDTO, len(jobs))
	for i := range jobs {
		jobResponse[i] = toJobDTO(&jobs[i])
	}

	var nextCursor string
	if hasMore {
		lastJob := jobs[len(jobs)-1]
		nextCursor = EncodeJobCursor(&storage.JobCursor{
			CreatedAt: lastJob.CreatedAt,
			JobID:     lastJob.JobID,
		})
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       jobResponse,
		NextCursor: nextCursor,
	})
}

// GetArtifacts handles GET /api/v1/jobs/:job_id/artifacts
// Returns the derived output of a completed job
func (h *JobHandler) GetArtifacts(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, err := uuid.Parse(jobID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "job_id must be a valid UUID",
		})
		return
	}

	job, err := h.storage.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	if job.Status != domain.JobStatusCompleted {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "Job has not completed",
			"status": job.Status,
		})
		return
	}

	resp := dto.ArtifactsResponse{
		JobID:   job.JobID,
		JobType: job.JobType,
	}

	switch job.JobType {
	case domain.JobTypeDocumentIngestion:
		content, err := h.storage.GetDocumentContent(c.Request.Context(), jobID)
		if err != nil {
			h.logger.Error("Failed to get document content", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get artifacts",
			})
			return
		}
		resp.Title = content.Title
		resp.Content = content.Content

	case domain.JobTypeVideoTranscription:
		segments, err := h.storage.GetTranscriptSegments(c.Request.Context(), jobID)
		if err != nil {
			h.logger.Error("Failed to get transcript segments", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to get artifacts",
			})
			return
		}
		resp.Segments = make([]dto.SegmentDTO, len(segments))
		for i, seg := range segments {
			resp.Segments[i] = dto.SegmentDTO{
				Seq:     seg.Seq,
				StartMs: seg.StartMs,
				EndMs:   seg.EndMs,
				Body:    seg.Body,
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

func toJobDTO(job *model.Job) dto.JobDTO {
	out := dto.JobDTO{
		JobID:          job.JobID,
		IdempotencyKey: job.IdempotencyKey,
		UserID:         job.UserID,
		JobType:        job.JobType,
		SourceURL:      job.SourceURL,
		Payload:        job.Payload,
		Status:         job.Status,
		CreatedAt:      job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      job.UpdatedAt.Format(time.RFC3339),
	}
	if job.ErrorMessage.Valid {
		out.ErrorMessage = job.ErrorMessage.String
	}
	return out
}
