// internal/workers/application/create-application-record/handler.go
package createapplicationrecord

import (
	"context"
	"time"

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
	TaskType = "create-application-record"
)

type Service interface {
	Submit(ctx context.Context, req workflow.SubmitRequest, actor models.Actor) (*models.Application, error)
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
	if err := validation.Check(validation.SubmissionSchema, raw); err != nil {
		return nil, err
	}
	var input Input
	if err := camunda.DecodeVariables(variables, &input); err != nil {
		return nil, err
	}
	return &input, nil
}

// Execute submits the application. Duplicate, closed-campaign and validation
// failures surface as non-retryable BPMN errors.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	actor := models.Actor{ID: input.ActorID, Role: models.Role(input.ActorRole)}
	app, err := h.service.Submit(ctx, workflow.SubmitRequest{
		CampaignID: input.CampaignID,
		Proposal:   input.Proposal,
	}, actor)
	if err != nil {
		return nil, err
	}

	h.logger.Info("application record created", map[string]interface{}{
		"applicationId": app.ID,
		"campaignId":    app.CampaignID,
		"creatorId":     app.CreatorID,
		"matchScore":    app.MatchScore,
	})

	return &Output{
		ApplicationID:     app.ID,
		ApplicationStatus: string(app.Status),
		MatchScore:        app.MatchScore,
		BrandID:           app.BrandID,
		CreatedAt:         app.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
