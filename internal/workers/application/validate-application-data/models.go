// internal/workers/application/validate-application-data/models.go
package validateapplicationdata

import "github.com/hazlijohar95/creatorschapter-sub000/internal/common/validation"

type Input struct {
	Proposal map[string]interface{} `json:"proposal"`
}

type Output struct {
	IsValid          bool                         `json:"isValid"`
	ValidatedData    ValidatedProposal            `json:"validatedData"`
	ValidationErrors []validation.ValidationError `json:"validationErrors"`
}

// ValidatedProposal is the normalised proposal handed to later tasks.
type ValidatedProposal struct {
	Message          string   `json:"message"`
	ProposedBudget   string   `json:"proposedBudget,omitempty"`
	BudgetMin        *int     `json:"budgetMin,omitempty"`
	BudgetMax        *int     `json:"budgetMax,omitempty"`
	ProposedTimeline string   `json:"proposedTimeline,omitempty"`
	PortfolioLinks   []string `json:"portfolioLinks"`
}
