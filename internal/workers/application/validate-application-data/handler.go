// internal/workers/application/validate-application-data/handler.go
package validateapplicationdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/camunda"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/validation"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/budget"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

const (
	TaskType = "validate-application-data"
)

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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.Proposal == nil {
		return nil, apperrors.NewValidationError("proposal: is required")
	}

	result := validation.Validate(validation.ProposalSchema, input.Proposal)
	errs := result.Errors

	var proposal models.Proposal
	if result.Valid {
		raw, err := json.Marshal(input.Proposal)
		if err != nil {
			return nil, apperrors.NewValidationError("proposal: " + err.Error())
		}
		if err := json.Unmarshal(raw, &proposal); err != nil {
			return nil, apperrors.NewValidationError("proposal: " + err.Error())
		}
		errs = append(errs, semanticErrors(proposal)...)
	}

	h.logger.Info("validation completed", map[string]interface{}{
		"isValid":    len(errs) == 0,
		"errorCount": len(errs),
	})

	if len(errs) > 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("%d validation errors", len(errs))).
			WithMetadata("schema", validation.ProposalSchema.Name()).
			WithMetadata("validationErrors", errs)
	}

	return &Output{
		IsValid:          true,
		ValidatedData:    normalise(proposal),
		ValidationErrors: []validation.ValidationError{},
	}, nil
}

// semanticErrors covers what the schema cannot: blank messages and budgets
// that do not parse.
func semanticErrors(p models.Proposal) []validation.ValidationError {
	var errs []validation.ValidationError
	if strings.TrimSpace(p.Message) == "" {
		errs = append(errs, validation.ValidationError{
			Field: "message", Code: "BLANK", Message: "message must not be blank",
		})
	}
	if p.ProposedBudget != "" {
		if _, ok := budget.Parse(p.ProposedBudget); !ok {
			errs = append(errs, validation.ValidationError{
				Field: "proposedBudget", Code: "UNPARSEABLE", Message: fmt.Sprintf("%q is not a budget", p.ProposedBudget),
			})
		}
	}
	return errs
}

func normalise(p models.Proposal) ValidatedProposal {
	out := ValidatedProposal{
		Message:          strings.TrimSpace(p.Message),
		ProposedBudget:   strings.TrimSpace(p.ProposedBudget),
		ProposedTimeline: strings.TrimSpace(p.ProposedTimeline),
		PortfolioLinks:   []string{},
	}
	if r, ok := budget.Parse(p.ProposedBudget); ok {
		lo := r.Min
		out.BudgetMin = &lo
		if !r.Unbounded {
			hi := r.Max
			out.BudgetMax = &hi
		}
	}

	seen := make(map[string]struct{}, len(p.PortfolioLinks))
	for _, link := range p.PortfolioLinks {
		link = strings.TrimSpace(link)
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		out.PortfolioLinks = append(out.PortfolioLinks, link)
	}
	return out
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
