// internal/workers/application/create-application-record/models.go
package createapplicationrecord

import "github.com/hazlijohar95/creatorschapter-sub000/internal/models"

type Input struct {
	CampaignID string          `json:"campaignId"`
	Proposal   models.Proposal `json:"proposal"`
	ActorID    string          `json:"actorId"`
	ActorRole  string          `json:"actorRole"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	MatchScore        int    `json:"matchScore"`
	BrandID           string `json:"brandId"`
	CreatedAt         string `json:"createdAt"` // ISO 8601
}
