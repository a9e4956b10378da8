// internal/workers/matching/calculate-match-score/handler.go
package calculatematchscore

import (
	"context"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/camunda"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/matching"
)

const (
	TaskType = "calculate-match-score"
)

type Matcher interface {
	Match(ctx context.Context, creatorID, campaignID string) (*matching.Match, error)
}

type Handler struct {
	config  *Config
	matcher Matcher
	runner  *camunda.JobRunner
	logger  logger.Logger
}

func NewHandler(config *Config, matcher Matcher, recorder observability.Recorder, log logger.Logger) *Handler {
	return &Handler{
		config:  config,
		matcher: matcher,
		runner:  camunda.NewJobRunner(TaskType, config.Timeout, recorder, log),
		logger:  log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

// Execute scores the creator against the campaign. A creator without a
// profile gets the neutral score rather than an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.CampaignID) == "" {
		return nil, apperrors.NewValidationError("campaignId: is required")
	}

	m, err := h.matcher.Match(ctx, input.CreatorID, input.CampaignID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("match score calculated", map[string]interface{}{
		"creatorId":    input.CreatorID,
		"campaignId":   input.CampaignID,
		"score":        m.MatchScore,
		"profileFound": m.ProfileFound,
	})

	return &Output{
		MatchScore:   m.MatchScore,
		MatchFactors: m.Breakdown,
		ProfileFound: m.ProfileFound,
	}, nil
}
