// Package workflow owns the application lifecycle: submission, status
// transitions and the brand/creator edits allowed along the way. Every
// mutation runs inside one store transaction together with its audit entry
// and any side-effect request it schedules.
package workflow

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/metrics"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/validation"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/scoring"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store"
)

const MaxNoteLength = 2000

// Notifier receives status-changed events after commit. Delivery is best
// effort: errors are logged and never fail the transition.
type Notifier interface {
	Notify(ctx context.Context, event models.StatusChangedEvent) error
}

// SideEffectDispatcher completes a side-effect request after commit. A
// request it fails to complete stays in the outbox.
type SideEffectDispatcher interface {
	Dispatch(ctx context.Context, req models.SideEffectRequest) (string, error)
}

// ProfileSource resolves creator profiles for scoring. A missing profile is
// (nil, nil).
type ProfileSource interface {
	Profile(ctx context.Context, creatorID string) (*models.CreatorProfile, error)
}

type storeProfiles struct{ store store.Store }

func (p storeProfiles) Profile(ctx context.Context, creatorID string) (*models.CreatorProfile, error) {
	profile, err := p.store.GetCreatorProfile(ctx, creatorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("get_creator_profile", err)
	}
	return profile, nil
}

type Service struct {
	store      store.Store
	profiles   ProfileSource
	dispatcher SideEffectDispatcher
	notifier   Notifier
	logger     logger.Logger
	timeout    time.Duration
	now        func() time.Time
	newID      func() string
}

type Option func(*Service)

func WithDispatcher(d SideEffectDispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithProfiles routes profile reads through p, typically the cached matcher,
// so submission and rescoring score exactly like listings and match lookups.
func WithProfiles(p ProfileSource) Option {
	return func(s *Service) { s.profiles = p }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithTimeout bounds each operation's persistence work.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(st store.Store, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:    st,
		profiles: storeProfiles{store: st},
		logger:   log.WithFields(map[string]interface{}{"component": "application-workflow"}),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes a committed (or no-op) transition.
type Result struct {
	ApplicationID  string                   `json:"applicationId"`
	From           models.ApplicationStatus `json:"fromStatus"`
	To             models.ApplicationStatus `json:"toStatus"`
	Changed        bool                     `json:"changed"`
	SideEffectID   string                   `json:"sideEffectId,omitempty"`
	ConversationID string                   `json:"conversationId,omitempty"`
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// classify leaves engine errors untouched and maps raw store failures.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var stdErr *apperrors.StandardError
	if errors.As(err, &stdErr) {
		return err
	}
	return apperrors.NewPersistenceError(op, err)
}

func loadApplication(ctx context.Context, tx store.Tx, id string) (*models.Application, error) {
	app, err := tx.GetApplicationForUpdate(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("application", id)
	}
	return app, err
}

// Transition moves an application to target on behalf of actor. Re-applying
// the current status succeeds with Changed=false and writes nothing.
func (s *Service) Transition(ctx context.Context, applicationID string, target models.ApplicationStatus, actor models.Actor) (*Result, error) {
	status, ok := models.ParseStatus(string(target))
	if !ok {
		return nil, apperrors.NewValidationError("unknown target status: " + string(target))
	}
	if !actor.Valid() {
		return nil, apperrors.NewUnauthorizedError("actor identity is missing")
	}

	log := s.logger.WithFields(map[string]interface{}{
		"applicationId": applicationID,
		"targetStatus":  string(status),
		"actorId":       actor.ID,
	})

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	res := &Result{ApplicationID: applicationID, To: status}
	var (
		app        models.Application
		sideEffect *models.SideEffectRequest
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		current, err := loadApplication(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		res.From = current.Status

		if !authorize(current, status, actor) {
			return apperrors.NewUnauthorizedError("actor does not own this application")
		}
		if current.Status == status {
			return nil
		}
		if !CanTransition(current.Status, status) {
			return invalidTransition(current.Status, status)
		}

		now := s.now()
		if err := tx.UpdateApplicationStatus(ctx, applicationID, status, now); err != nil {
			return err
		}
		if err := tx.AppendAuditEntry(ctx, models.AuditEntry{
			ID:            s.newID(),
			ApplicationID: applicationID,
			ActorID:       actor.ID,
			ActorRole:     actor.Role,
			Action:        models.AuditStatusChanged,
			FromStatus:    current.Status,
			ToStatus:      status,
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		if status.RequiresConversation() {
			req := models.SideEffectRequest{
				ID:            s.newID(),
				Kind:          models.SideEffectEnsureConversation,
				ApplicationID: applicationID,
				CreatorID:     current.CreatorID,
				BrandID:       current.BrandID,
				State:         models.SideEffectPending,
				CreatedAt:     now,
			}
			if err := tx.EnqueueSideEffect(ctx, req); err != nil {
				return err
			}
			sideEffect = &req
			res.SideEffectID = req.ID
		}

		current.Status = status
		current.IsNew = false
		current.UpdatedAt = now
		app = *current
		res.Changed = true
		return nil
	})
	if err = classify("transition", err); err != nil {
		metrics.ApplicationTransitions.WithLabelValues(string(res.From), string(status), string(apperrors.CodeOf(err))).Inc()
		log.Warn("transition rejected", map[string]interface{}{"error": err})
		return nil, err
	}

	if !res.Changed {
		metrics.ApplicationTransitions.WithLabelValues(string(res.From), string(status), "noop").Inc()
		log.Debug("transition is a no-op", nil)
		return res, nil
	}

	metrics.ApplicationTransitions.WithLabelValues(string(res.From), string(status), "ok").Inc()
	log.Info("application status changed", map[string]interface{}{
		"fromStatus": string(res.From),
		"toStatus":   string(status),
	})

	s.afterCommit(ctx, log, res, app, sideEffect, actor)
	return res, nil
}

// afterCommit runs the dependent work of a committed transition. Neither step
// can undo the transition.
func (s *Service) afterCommit(ctx context.Context, log logger.Logger, res *Result, app models.Application,
	req *models.SideEffectRequest, actor models.Actor) {
	if req != nil && s.dispatcher != nil {
		convID, err := s.dispatcher.Dispatch(ctx, *req)
		if err != nil {
			log.Warn("side effect left pending in outbox", map[string]interface{}{
				"sideEffectId": req.ID,
				"error":        err,
			})
		} else {
			res.ConversationID = convID
		}
	}

	if s.notifier == nil {
		return
	}
	event := models.StatusChangedEvent{
		Type:          models.EventApplicationStatusChanged,
		ApplicationID: app.ID,
		CampaignID:    app.CampaignID,
		CreatorID:     app.CreatorID,
		BrandID:       app.BrandID,
		FromStatus:    res.From,
		ToStatus:      res.To,
		ActorID:       actor.ID,
		OccurredAt:    app.UpdatedAt,
	}
	if err := s.notifier.Notify(context.WithoutCancel(ctx), event); err != nil {
		log.Warn("status notification not delivered", map[string]interface{}{"error": err})
	}
}

// SubmitRequest is a creator's application to a campaign.
type SubmitRequest struct {
	CampaignID string          `json:"campaignId"`
	Proposal   models.Proposal `json:"proposal"`
}

// Submit creates a pending application for the acting creator, scored against
// the campaign, and bumps the campaign's application count.
func (s *Service) Submit(ctx context.Context, req SubmitRequest, actor models.Actor) (*models.Application, error) {
	if !actor.Valid() || actor.Role != models.RoleCreator {
		return nil, apperrors.NewUnauthorizedError("only creators can apply to campaigns")
	}
	if strings.TrimSpace(req.CampaignID) == "" {
		return nil, apperrors.NewValidationError("campaignId: is required")
	}
	if err := validation.ValidateProposal(req.Proposal); err != nil {
		return nil, err
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	profile, err := s.profiles.Profile(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	var created *models.Application
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		campaign, err := tx.GetCampaignForUpdate(ctx, req.CampaignID)
		if errors.Is(err, store.ErrNotFound) {
			return apperrors.NewNotFoundError("campaign", req.CampaignID)
		}
		if err != nil {
			return err
		}
		if !campaign.AcceptsApplications() {
			return apperrors.NewCampaignNotActiveError(campaign.ID, string(campaign.Status))
		}

		now := s.now()
		app := &models.Application{
			ID:         s.newID(),
			CampaignID: campaign.ID,
			CreatorID:  actor.ID,
			BrandID:    campaign.BrandID,
			Status:     models.StatusPending,
			MatchScore: scoring.Score(profile, campaign),
			Proposal:   req.Proposal,
			IsNew:      true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		err = tx.InsertApplication(ctx, app)
		if errors.Is(err, store.ErrDuplicate) {
			return apperrors.NewDuplicateApplicationError(campaign.ID, actor.ID)
		}
		if err != nil {
			return err
		}
		if err := tx.IncrementApplicationsCount(ctx, campaign.ID); err != nil {
			return err
		}
		if err := tx.AppendAuditEntry(ctx, models.AuditEntry{
			ID:            s.newID(),
			ApplicationID: app.ID,
			ActorID:       actor.ID,
			ActorRole:     actor.Role,
			Action:        models.AuditApplicationCreated,
			ToStatus:      models.StatusPending,
			CreatedAt:     now,
		}); err != nil {
			return err
		}
		created = app
		return nil
	})
	if err = classify("submit_application", err); err != nil {
		return nil, err
	}

	s.logger.Info("application submitted", map[string]interface{}{
		"applicationId": created.ID,
		"campaignId":    created.CampaignID,
		"creatorId":     created.CreatorID,
		"matchScore":    created.MatchScore,
	})
	return created, nil
}

// UpdateProposal replaces the proposal of a pending application. Only the
// creator who submitted it may edit it.
func (s *Service) UpdateProposal(ctx context.Context, applicationID string, proposal models.Proposal, actor models.Actor) (*models.Application, error) {
	if err := validation.ValidateProposal(proposal); err != nil {
		return nil, err
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var updated *models.Application
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		app, err := loadApplication(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		if !isOwningCreator(app, actor) {
			return apperrors.NewUnauthorizedError("only the applying creator can edit the proposal")
		}
		if app.Status != models.StatusPending {
			return apperrors.NewProposalLockedError(string(app.Status))
		}

		now := s.now()
		if err := tx.UpdateProposal(ctx, applicationID, proposal, now); err != nil {
			return err
		}
		if err := tx.AppendAuditEntry(ctx, models.AuditEntry{
			ID:            s.newID(),
			ApplicationID: applicationID,
			ActorID:       actor.ID,
			ActorRole:     actor.Role,
			Action:        models.AuditProposalUpdated,
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		app.Proposal = proposal
		app.UpdatedAt = now
		updated = app
		return nil
	})
	if err = classify("update_proposal", err); err != nil {
		return nil, err
	}
	return updated, nil
}

// AddNote appends a brand-internal note. Notes are only ever shown to the
// owning brand.
func (s *Service) AddNote(ctx context.Context, applicationID, text string, actor models.Actor) (*models.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxNoteLength {
		return nil, apperrors.NewValidationError("text: must be 1-2000 characters")
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var note *models.Note
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		app, err := loadApplication(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		if !isOwningBrand(app, actor) {
			return apperrors.NewUnauthorizedError("only the campaign's brand can annotate applications")
		}

		n := models.Note{ID: s.newID(), AuthorID: actor.ID, Text: text, CreatedAt: s.now()}
		if err := tx.AppendNote(ctx, applicationID, n); err != nil {
			return err
		}
		if err := tx.AppendAuditEntry(ctx, models.AuditEntry{
			ID:            s.newID(),
			ApplicationID: applicationID,
			ActorID:       actor.ID,
			ActorRole:     actor.Role,
			Action:        models.AuditNoteAdded,
			CreatedAt:     n.CreatedAt,
		}); err != nil {
			return err
		}
		note = &n
		return nil
	})
	if err = classify("add_note", err); err != nil {
		return nil, err
	}
	return note, nil
}

// MarkViewed clears the new flag for the owning brand. Status is untouched.
func (s *Service) MarkViewed(ctx context.Context, applicationID string, actor models.Actor) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx store.Tx) error {
		app, err := loadApplication(ctx, tx, applicationID)
		if err != nil {
			return err
		}
		if !isOwningBrand(app, actor) {
			return apperrors.NewUnauthorizedError("only the campaign's brand can mark applications viewed")
		}
		if !app.IsNew {
			return nil
		}
		return tx.MarkViewed(ctx, applicationID)
	})
	return classify("mark_viewed", err)
}

// Get returns the application as actor may see it. Only the two parties of the
// application can read it.
func (s *Service) Get(ctx context.Context, applicationID string, actor models.Actor) (*models.Application, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	app, err := s.store.GetApplication(ctx, applicationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("application", applicationID)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("get_application", err)
	}
	if !isOwningBrand(app, actor) && !isOwningCreator(app, actor) {
		return nil, apperrors.NewUnauthorizedError("actor is not a party to this application")
	}
	visible := app.VisibleTo(actor)
	return &visible, nil
}

// Rescore recomputes and stores the match score from the current creator
// profile and campaign. A missing profile scores neutral.
func (s *Service) Rescore(ctx context.Context, applicationID string) (int, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	app, err := s.store.GetApplication(ctx, applicationID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, apperrors.NewNotFoundError("application", applicationID)
	}
	if err != nil {
		return 0, apperrors.NewPersistenceError("get_application", err)
	}

	campaign, err := s.store.GetCampaign(ctx, app.CampaignID)
	if errors.Is(err, store.ErrNotFound) {
		return 0, apperrors.NewNotFoundError("campaign", app.CampaignID)
	}
	if err != nil {
		return 0, apperrors.NewPersistenceError("get_campaign", err)
	}

	profile, err := s.profiles.Profile(ctx, app.CreatorID)
	if err != nil {
		return 0, err
	}

	score := scoring.Score(profile, campaign)
	if err := s.store.UpdateMatchScore(ctx, applicationID, score); err != nil {
		return 0, classify("update_match_score", err)
	}
	return score, nil
}
