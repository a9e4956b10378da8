package models

import "time"

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignArchived  CampaignStatus = "archived"
)

// Campaign is a brand's posted engagement. The workflow only writes
// ApplicationsCount.
type Campaign struct {
	ID                    string         `json:"id"`
	BrandID               string         `json:"brandId"`
	Title                 string         `json:"title"`
	Company               string         `json:"company"`
	Description           string         `json:"description"`
	Tags                  []string       `json:"tags,omitempty"`
	Categories            []string       `json:"categories"`
	BudgetRange           string         `json:"budgetRange"`
	RequiredFollowerFloor int            `json:"requiredFollowerFloor"`
	Deadline              *time.Time     `json:"deadline,omitempty"`
	Status                CampaignStatus `json:"status"`
	ApplicationsCount     int            `json:"applicationsCount"`
	CreatedAt             time.Time      `json:"createdAt"`
}

func (c Campaign) AcceptsApplications() bool {
	return c.Status == CampaignActive
}
