// internal/workers/listing/rank-listing/models.go
package ranklisting

import (
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/filtering"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/listing"
)

const (
	KindOpportunities        = "opportunities"
	KindCampaignApplications = "campaign-applications"
)

type Input struct {
	ListingKind  string        `json:"listingKind"`
	CampaignID   string        `json:"campaignId,omitempty"`
	ActorID      string        `json:"actorId"`
	ActorRole    string        `json:"actorRole"`
	ListingQuery listing.Query `json:"listingQuery"`
}

type Output struct {
	Items []filtering.Item `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Size  int              `json:"size"`
}
