// internal/workers/application/rescore-application/handler.go
package rescoreapplication

import (
	"context"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/camunda"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
)

const (
	TaskType = "rescore-application"
)

type Rescorer interface {
	Rescore(ctx context.Context, applicationID string) (int, error)
}

// Handler recomputes the stored match score of one application, typically
// after the creator edits their profile or the brand edits the campaign.
type Handler struct {
	config   *Config
	rescorer Rescorer
	runner   *camunda.JobRunner
	logger   logger.Logger
}

func NewHandler(config *Config, rescorer Rescorer, recorder observability.Recorder, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		rescorer: rescorer,
		runner:   camunda.NewJobRunner(TaskType, config.Timeout, recorder, log),
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, variables string) (interface{}, error) {
		var input Input
		if err := camunda.DecodeVariables(variables, &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	id := strings.TrimSpace(input.ApplicationID)
	if id == "" {
		return nil, apperrors.NewValidationError("applicationId: is required")
	}

	score, err := h.rescorer.Rescore(ctx, id)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("application rescored", map[string]interface{}{"applicationId": id, "matchScore": score})
	return &Output{ApplicationID: id, MatchScore: score}, nil
}
