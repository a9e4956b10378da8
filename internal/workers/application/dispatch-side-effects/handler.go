// internal/workers/application/dispatch-side-effects/handler.go
package dispatchsideeffects

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/camunda"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/sideeffects"
)

const (
	TaskType = "dispatch-side-effects"
)

type Dispatcher interface {
	DispatchPending(ctx context.Context, limit int) (sideeffects.DrainResult, error)
}

// Handler replays the side-effect outbox. A timer-started process runs it
// periodically; nothing inside the engine polls the outbox.
type Handler struct {
	config     *Config
	dispatcher Dispatcher
	runner     *camunda.JobRunner
	logger     logger.Logger
}

func NewHandler(config *Config, dispatcher Dispatcher, recorder observability.Recorder, log logger.Logger) *Handler {
	return &Handler{
		config:     config,
		dispatcher: dispatcher,
		runner:     camunda.NewJobRunner(TaskType, config.Timeout, recorder, log),
		logger:     log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, variables string) (interface{}, error) {
		var input Input
		if variables != "" {
			if err := camunda.DecodeVariables(variables, &input); err != nil {
				return nil, err
			}
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Limit < 0 {
		return nil, apperrors.NewValidationError("limit: must not be negative")
	}
	limit := input.Limit
	if limit == 0 {
		limit = h.config.BatchSize
	}

	res, err := h.dispatcher.DispatchPending(ctx, limit)
	if err != nil {
		return nil, err
	}

	failed := res.Failed
	if failed == nil {
		failed = []string{}
	}
	return &Output{
		Processed:       res.Processed,
		Completed:       res.Completed,
		FailedRequests:  failed,
		OutboxRemaining: res.Processed == limit,
	}, nil
}
