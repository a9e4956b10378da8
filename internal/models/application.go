package models

import (
	"strings"
	"time"
)

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	StatusPending      ApplicationStatus = "pending"
	StatusApproved     ApplicationStatus = "approved"
	StatusRejected     ApplicationStatus = "rejected"
	StatusInDiscussion ApplicationStatus = "in_discussion"
	StatusWithdrawn    ApplicationStatus = "withdrawn"
)

// legacyStatuses maps the older three-state vocabulary onto the current one.
var legacyStatuses = map[string]ApplicationStatus{
	"submitted": StatusPending,
	"accepted":  StatusApproved,
}

// ParseStatus normalises a stored or requested status. Legacy values are
// accepted and mapped; unknown values report ok=false.
func ParseStatus(s string) (ApplicationStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch st := ApplicationStatus(v); st {
	case StatusPending, StatusApproved, StatusRejected, StatusInDiscussion, StatusWithdrawn:
		return st, true
	}
	if st, ok := legacyStatuses[v]; ok {
		return st, true
	}
	return "", false
}

// IsTerminal reports whether no transition may leave this status.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusWithdrawn
}

// RequiresConversation reports whether entering this status schedules a
// conversation for the creator/brand pair.
func (s ApplicationStatus) RequiresConversation() bool {
	return s == StatusApproved || s == StatusInDiscussion
}

// Proposal is the creator-authored payload of an application.
type Proposal struct {
	Message          string   `json:"message"`
	ProposedBudget   string   `json:"proposedBudget,omitempty"`
	ProposedTimeline string   `json:"proposedTimeline,omitempty"`
	PortfolioLinks   []string `json:"portfolioLinks,omitempty"`
}

// Note is a brand-internal annotation.
type Note struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Application struct {
	ID         string            `json:"id"`
	CampaignID string            `json:"campaignId"`
	CreatorID  string            `json:"creatorId"`
	BrandID    string            `json:"brandId,omitempty"` // owning brand, joined from the campaign
	Status     ApplicationStatus `json:"status"`
	MatchScore int               `json:"matchScore"`
	Proposal
	Notes     []Note    `json:"notes,omitempty"`
	IsNew     bool      `json:"isNew"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VisibleTo returns a copy of the application with brand-internal fields
// removed for anyone but the owning brand.
func (a Application) VisibleTo(actor Actor) Application {
	if actor.Role == RoleBrand && actor.ID == a.BrandID {
		return a
	}
	a.Notes = nil
	return a
}

// AuditEntry records one mutation of an application.
type AuditEntry struct {
	ID            string            `json:"id"`
	ApplicationID string            `json:"applicationId"`
	ActorID       string            `json:"actorId"`
	ActorRole     Role              `json:"actorRole"`
	Action        string            `json:"action"`
	FromStatus    ApplicationStatus `json:"fromStatus,omitempty"`
	ToStatus      ApplicationStatus `json:"toStatus,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// Audit actions.
const (
	AuditApplicationCreated = "application_created"
	AuditStatusChanged      = "status_changed"
	AuditProposalUpdated    = "proposal_updated"
	AuditNoteAdded          = "note_added"
)
