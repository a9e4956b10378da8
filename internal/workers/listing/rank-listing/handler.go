// internal/workers/listing/rank-listing/handler.go
package ranklisting

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/camunda"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/filtering"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/listing"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

const TaskType = "rank-listing"

type Lister interface {
	Opportunities(ctx context.Context, creatorID string, q listing.Query) (filtering.Page, error)
	CampaignApplications(ctx context.Context, campaignID string, actor models.Actor, q listing.Query) (filtering.Page, error)
}

type Handler struct {
	config *Config
	lister Lister
	runner *camunda.JobRunner
	logger logger.Logger
}

func NewHandler(config *Config, lister Lister, recorder observability.Recorder, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		lister: lister,
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

// normalise fills the pagination and sort defaults of a query that did not
// come through parse-listing-filters.
func (h *Handler) normalise(q listing.Query) listing.Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = min(listing.DefaultPageSize, h.config.MaxPageSize)
	}
	q.PageSize = min(q.PageSize, h.config.MaxPageSize)
	if q.SortBy == "" {
		q.SortBy = filtering.SortRelevance
	}
	return q
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	q := h.normalise(input.ListingQuery)
	key, ok := filtering.ParseSortKey(string(q.SortBy))
	if !ok {
		return nil, apperrors.NewValidationError("sortBy: unknown sort key " + string(q.SortBy))
	}
	q.SortBy = key
	actor := models.Actor{ID: input.ActorID, Role: models.Role(input.ActorRole)}

	var (
		page filtering.Page
		err  error
	)
	switch input.ListingKind {
	case KindOpportunities:
		if actor.Role != models.RoleCreator {
			return nil, apperrors.NewUnauthorizedError("opportunities are listed for creators")
		}
		page, err = h.lister.Opportunities(ctx, actor.ID, q)
	case KindCampaignApplications:
		if input.CampaignID == "" {
			return nil, apperrors.NewValidationError("campaignId: is required")
		}
		page, err = h.lister.CampaignApplications(ctx, input.CampaignID, actor, q)
	default:
		return nil, apperrors.NewValidationError("listingKind: must be one of opportunities, campaign-applications")
	}
	if err != nil {
		return nil, err
	}

	h.logger.Info("listing ranked", map[string]interface{}{
		"listingKind": input.ListingKind,
		"total":       page.Total,
		"page":        page.Page,
		"returned":    len(page.Items),
	})
	return &Output{Items: page.Items, Total: page.Total, Page: page.Page, Size: page.Size}, nil
}
