package models

import "time"

// EventApplicationStatusChanged is the type tag on published status events.
const EventApplicationStatusChanged = "application.status_changed"

// StatusChangedEvent is published best-effort after a transition commits.
type StatusChangedEvent struct {
	Type          string            `json:"type"`
	ApplicationID string            `json:"applicationId"`
	CampaignID    string            `json:"campaignId"`
	CreatorID     string            `json:"creatorId"`
	BrandID       string            `json:"brandId"`
	FromStatus    ApplicationStatus `json:"fromStatus"`
	ToStatus      ApplicationStatus `json:"toStatus"`
	ActorID       string            `json:"actorId"`
	OccurredAt    time.Time         `json:"occurredAt"`
}
