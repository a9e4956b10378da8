// Package scoring computes the creator/campaign compatibility score.
//
// The score is a weighted sum of four independently bounded components:
// category overlap (40), audience/budget alignment (30), engagement tier (20)
// and profile completeness (10). It is deterministic and never fails; missing
// inputs fall back to neutral values.
package scoring

import (
	"math"
	"strings"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/budget"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

// Component weights.
const (
	CategoryWeight   = 40
	AlignmentWeight  = 30
	EngagementWeight = 20
	PortfolioWeight  = 10
)

// NeutralScore is returned when either side of the match is absent.
const NeutralScore = 50

const (
	audiencePerBand = 10_000
	budgetPerBand   = 1_000
	bandCeiling     = 10

	alignedTolerance = 2
	nearTolerance    = 4

	nearAlignment     = 15
	distantAlignment  = 5
	neutralAlignment  = 15
	partialEngagement = 12
	minimalEngagement = 6
)

// Breakdown exposes the per-component contribution of a score.
type Breakdown struct {
	CategoryFit   float64 `json:"categoryFit"`
	AlignmentFit  float64 `json:"alignmentFit"`
	EngagementFit float64 `json:"engagementFit"`
	PortfolioFit  float64 `json:"portfolioFit"`
	Total         int     `json:"total"`
}

// NeutralBreakdown splits NeutralScore evenly across the weights.
func NeutralBreakdown() Breakdown {
	return Breakdown{
		CategoryFit:   CategoryWeight / 2,
		AlignmentFit:  AlignmentWeight / 2,
		EngagementFit: EngagementWeight / 2,
		PortfolioFit:  PortfolioWeight / 2,
		Total:         NeutralScore,
	}
}

// Score returns the 0-100 compatibility of creator with campaign.
func Score(creator *models.CreatorProfile, campaign *models.Campaign) int {
	return Explain(creator, campaign).Total
}

// Explain is Score with the component breakdown.
func Explain(creator *models.CreatorProfile, campaign *models.Campaign) Breakdown {
	if creator == nil || campaign == nil {
		return NeutralBreakdown()
	}

	b := Breakdown{
		CategoryFit:   categoryFit(creator.Categories, campaign.Categories),
		AlignmentFit:  alignmentFit(creator.AudienceSize, campaign.BudgetRange),
		EngagementFit: engagementFit(creator.EngagementRate),
		PortfolioFit:  portfolioFit(creator.PortfolioItems),
	}
	b.Total = Clamp(int(math.Round(b.CategoryFit + b.AlignmentFit + b.EngagementFit + b.PortfolioFit)))
	return b
}

// Clamp bounds a score to [0,100].
func Clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

func normalizeSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func categoryFit(creatorCats, campaignCats []string) float64 {
	wanted := normalizeSet(campaignCats)
	if len(wanted) == 0 {
		return 0
	}
	have := normalizeSet(creatorCats)

	matched := 0
	for c := range wanted {
		if _, ok := have[c]; ok {
			matched++
		}
	}
	return CategoryWeight * float64(matched) / float64(len(wanted))
}

func band(value, perBand int) int {
	return min(value/perBand, bandCeiling)
}

func alignmentFit(audience int, budgetRange string) float64 {
	upper := budget.UpperOf(budgetRange)
	if audience <= 0 || upper <= 0 {
		return neutralAlignment
	}

	diff := band(audience, audiencePerBand) - band(upper, budgetPerBand)
	if diff < 0 {
		diff = -diff
	}

	switch {
	case diff < alignedTolerance:
		return AlignmentWeight
	case diff < nearTolerance:
		return nearAlignment
	default:
		return distantAlignment
	}
}

func engagementFit(rate float64) float64 {
	switch {
	case math.IsNaN(rate):
		return 0
	case rate > 3:
		return EngagementWeight
	case rate > 2:
		return partialEngagement
	case rate > 1:
		return minimalEngagement
	default:
		return 0
	}
}

func portfolioFit(items int) float64 {
	if items > 0 {
		return PortfolioWeight
	}
	return 0
}
