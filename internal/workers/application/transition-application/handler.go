// internal/workers/application/transition-application/handler.go
package transitionapplication

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/camunda"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/validation"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/workflow"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

const (
	TaskType = "transition-application"
)

// Service is the workflow operation this worker drives.
type Service interface {
	Transition(ctx context.Context, applicationID string, target models.ApplicationStatus, actor models.Actor) (*workflow.Result, error)
}

type Handler struct {
	config  *Config
	service Service
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, service Service, recorder observability.Recorder, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		service: service,
		runner:  camunda.NewJobRunner(TaskType, config.Timeout, recorder, log),
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	if err := validation.Check(validation.TransitionSchema, raw); err != nil {
		return nil, err
	}
	var input Input
	if err := camunda.DecodeVariables(variables, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor := models.Actor{ID: input.ActorID, Role: models.Role(input.ActorRole)}
	res, err := h.service.Transition(ctx, input.ApplicationID, models.ApplicationStatus(input.TargetStatus), actor)
	if err != nil {
		return nil, err
	}

	h.logger.Info("application transitioned", map[string]interface{}{
		"applicationId": res.ApplicationID,
		"fromStatus":    string(res.From),
		"toStatus":      string(res.To),
		"changed":       res.Changed,
	})

	return &Output{
		ApplicationID:     res.ApplicationID,
		ApplicationStatus: string(res.To),
		PreviousStatus:    string(res.From),
		StatusChanged:     res.Changed,
		ConversationID:    res.ConversationID,
	}, nil
}
