// Package store defines the persistence boundary of the workflow engine.
// Implementations live in the postgres and memory subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

var (
	// ErrNotFound is returned when a keyed lookup matches no row.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("store: duplicate key")
)

// Store is the transactional relational store the engine runs against.
type Store interface {
	// WithinTx runs fn in a single transaction. A non-nil error from fn rolls
	// back every write made through tx.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	GetApplication(ctx context.Context, id string) (*models.Application, error)
	ListApplicationsByCampaign(ctx context.Context, campaignID string) ([]models.Application, error)
	UpdateMatchScore(ctx context.Context, applicationID string, score int) error

	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
	ListCampaigns(ctx context.Context, statuses []models.CampaignStatus) ([]models.Campaign, error)

	GetCreatorProfile(ctx context.Context, id string) (*models.CreatorProfile, error)

	ConversationStore
	SideEffectStore
}

// ConversationStore is the subset the side-effect dispatcher needs.
type ConversationStore interface {
	// FindConversation looks a conversation up by its sorted participant pair.
	FindConversation(ctx context.Context, participantA, participantB string) (*models.Conversation, error)
	// InsertConversation returns ErrDuplicate if the pair already has one.
	InsertConversation(ctx context.Context, c *models.Conversation) error
}

// SideEffectStore drains the side-effect outbox.
type SideEffectStore interface {
	ListPendingSideEffects(ctx context.Context, limit int) ([]models.SideEffectRequest, error)
	MarkSideEffectDone(ctx context.Context, id, conversationID string) error
	// MarkSideEffectFailed records a failed attempt. final moves the request
	// out of the pending set.
	MarkSideEffectFailed(ctx context.Context, id, reason string, final bool) error
}

// Tx is the write surface available inside WithinTx.
type Tx interface {
	// GetApplicationForUpdate loads the application with its owning brand and
	// locks it for the rest of the transaction.
	GetApplicationForUpdate(ctx context.Context, id string) (*models.Application, error)
	// UpdateApplicationStatus sets the status and clears the new/unseen flag.
	UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, at time.Time) error
	UpdateProposal(ctx context.Context, id string, proposal models.Proposal, at time.Time) error
	AppendNote(ctx context.Context, applicationID string, note models.Note) error
	MarkViewed(ctx context.Context, applicationID string) error
	// InsertApplication returns ErrDuplicate when the creator already applied
	// to the campaign.
	InsertApplication(ctx context.Context, app *models.Application) error

	GetCampaignForUpdate(ctx context.Context, id string) (*models.Campaign, error)
	IncrementApplicationsCount(ctx context.Context, campaignID string) error

	AppendAuditEntry(ctx context.Context, entry models.AuditEntry) error
	EnqueueSideEffect(ctx context.Context, req models.SideEffectRequest) error
}
