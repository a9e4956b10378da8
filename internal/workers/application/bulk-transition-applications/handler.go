// internal/workers/application/bulk-transition-applications/handler.go
package bulktransitionapplications

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/camunda"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/validation"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/bulk"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

const (
	TaskType = "bulk-transition-applications"
)

type Coordinator interface {
	Apply(ctx context.Context, applicationIDs []string, target models.ApplicationStatus, actor models.Actor) (*bulk.Result, error)
}

type Handler struct {
	config      *Config
	coordinator Coordinator
	runner      *camunda.JobRunner
	logger      logger.Logger
}

func NewHandler(config *Config, coordinator Coordinator, recorder observability.Recorder, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		coordinator: coordinator,
		runner:      camunda.NewJobRunner(TaskType, config.Timeout, recorder, log),
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, h.run)
}

func (h *Handler) run(ctx context.Context, variables string) (interface{}, error) {
	input, err := h.parseInput(variables)
	if err != nil {
		return nil, err
	}
	return h.Execute(ctx, input)
}

func (h *Handler) parseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := camunda.DecodeVariables(variables, &raw); err != nil {
		return nil, err
	}
	if err := validation.Check(validation.BulkTransitionSchema, raw); err != nil {
		return nil, err
	}
	var input Input
	if err := camunda.DecodeVariables(variables, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// Execute completes the job for any per-item outcome, including all items
// failing. Only whole-batch errors such as an empty selection fail the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor := models.Actor{ID: input.ActorID, Role: models.Role(input.ActorRole)}
	res, err := h.coordinator.Apply(ctx, input.ApplicationIDs, models.ApplicationStatus(input.TargetStatus), actor)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("bulk transition job result", map[string]interface{}{
		"targetStatus": input.TargetStatus,
		"status":       string(res.Status),
		"succeeded":    len(res.Succeeded),
		"failed":       len(res.Failed),
	})

	return &Output{
		BulkStatus:     string(res.Status),
		Succeeded:      res.Succeeded,
		Failed:         res.Failed,
		SucceededCount: len(res.Succeeded),
		FailedCount:    len(res.Failed),
	}, nil
}
