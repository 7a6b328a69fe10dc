package handler

import (
	"log/slog"

	"github.com/eduhub/processing-be/internal/api/storage"
	"github.com/eduhub/processing-be/internal/resilience"
	"github.com/eduhub/processing-be/shared/rabbitmq"
)

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger        *slog.Logger
	Storage       *storage.Storage
	RabbitClient  *rabbitmq.Client
	PublishPolicy resilience.Policy
}

// JobHandler handles job-related HTTP requests
type JobHandler struct {
	logger        *slog.Logger
	storage       *storage.Storage
	rabbitClient  *rabbitmq.Client
	publishPolicy resilience.Policy
}

// NewJobHandler creates a new JobHandler instance
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:        deps.Logger,
		storage:       deps.Storage,
		rabbitClient:  deps.RabbitClient,
		publishPolicy: deps.PublishPolicy,
	}
}
