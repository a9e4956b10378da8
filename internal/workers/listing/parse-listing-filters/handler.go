// internal/workers/listing/parse-listing-filters/handler.go
package parselistingfilters

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/camunda"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/validation"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/filtering"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/listing"
)

const TaskType = "parse-listing-filters"

type Handler struct {
	config *Config
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, recorder observability.Recorder, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		runner: camunda.NewJobRunner(TaskType, config.Timeout, recorder, log),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

// Execute normalises raw filters into a listing query. Unknown keys are
// ignored; malformed known keys fail with VALIDATION_FAILED.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	raw := input.RawFilters
	if raw == nil {
		raw = map[string]interface{}{}
	}
	if err := validation.Check(validation.ListingSchema, raw); err != nil {
		return nil, err
	}

	q, err := listing.ParseQuery(raw, filtering.SortRelevance, h.config.MaxPageSize)
	if err != nil {
		return nil, err
	}

	h.logger.Debug("listing filters parsed", map[string]interface{}{
		"categories": len(q.Filters.Categories),
		"sortBy":     string(q.SortBy),
		"page":       q.Page,
		"pageSize":   q.PageSize,
	})
	return &Output{ListingQuery: q}, nil
}
