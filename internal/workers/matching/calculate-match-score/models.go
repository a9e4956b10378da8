// internal/workers/matching/calculate-match-score/models.go
package calculatematchscore

import "github.com/hazlijohar95/creatorschapter-sub000/internal/engine/scoring"

type Input struct {
	CreatorID  string `json:"creatorId"`
	CampaignID string `json:"campaignId"`
}

type Output struct {
	MatchScore   int               `json:"matchScore"`
	MatchFactors scoring.Breakdown `json:"matchFactors"`
	ProfileFound bool              `json:"profileFound"`
}
