package models

import "time"

// Conversation is the collaboration thread between a creator and a brand.
// ParticipantA/ParticipantB hold the pair in sorted order so that the pair is
// unordered for uniqueness purposes.
type Conversation struct {
	ID            string    `json:"id"`
	ParticipantA  string    `json:"participantA"`
	ParticipantB  string    `json:"participantB"`
	CreatorID     string    `json:"creatorId"`
	BrandID       string    `json:"brandId"`
	ApplicationID string    `json:"applicationId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ConversationKey orders two participant ids.
func ConversationKey(x, y string) (string, string) {
	if y < x {
		return y, x
	}
	return x, y
}

// SideEffectKind names a dependent action scheduled by a transition.
type SideEffectKind string

const SideEffectEnsureConversation SideEffectKind = "ensure_conversation"

type SideEffectState string

const (
	SideEffectPending SideEffectState = "pending"
	SideEffectDone    SideEffectState = "done"
	SideEffectFailed  SideEffectState = "failed"
)

// SideEffectRequest is written in the same transaction as the status change
// and completed after commit.
type SideEffectRequest struct {
	ID             string          `json:"id"`
	Kind           SideEffectKind  `json:"kind"`
	ApplicationID  string          `json:"applicationId"`
	CreatorID      string          `json:"creatorId"`
	BrandID        string          `json:"brandId"`
	State          SideEffectState `json:"state"`
	Attempts       int             `json:"attempts"`
	LastError      string          `json:"lastError,omitempty"`
	ConversationID string          `json:"conversationId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}
