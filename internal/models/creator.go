package models

// CreatorProfile is the slice of a creator's profile that scoring reads.
// Zero AudienceSize means the audience is unknown.
type CreatorProfile struct {
	ID             string   `json:"id"`
	Categories     []string `json:"categories"`
	AudienceSize   int      `json:"audienceSize"`
	EngagementRate float64  `json:"engagementRate"` // percent, e.g. 4.2
	PortfolioItems int      `json:"portfolioItems"`
}
