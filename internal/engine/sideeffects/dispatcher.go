// Package sideeffects completes the dependent actions a status transition
// schedules, today only conversation creation for a creator/brand pair.
package sideeffects

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/metrics"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store"
)

const DefaultMaxAttempts = 3

// Store is the persistence the dispatcher needs.
type Store interface {
	store.ConversationStore
	store.SideEffectStore
}

type Dispatcher struct {
	store       Store
	maxAttempts int
	logger      logger.Logger
	now         func() time.Time
	newID       func() string
}

func NewDispatcher(st Store, maxAttempts int, log logger.Logger) *Dispatcher {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Dispatcher{
		store:       st,
		maxAttempts: maxAttempts,
		logger:      log.WithFields(map[string]interface{}{"component": "side-effect-dispatcher"}),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
}

// EnsureConversation returns the id of the single conversation between the
// creator and the brand, creating it if needed. A lost insert race is resolved
// by re-reading the winner's row; after maxAttempts unresolved rounds it fails
// with CONFLICT_RETRY_EXHAUSTED.
func (d *Dispatcher) EnsureConversation(ctx context.Context, creatorID, brandID, applicationID string) (string, error) {
	a, b := models.ConversationKey(creatorID, brandID)

	var lastErr error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		existing, err := d.store.FindConversation(ctx, a, b)
		if err == nil {
			return existing.ID, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return "", apperrors.NewPersistenceError("find_conversation", err)
		}

		conv := &models.Conversation{
			ID:            d.newID(),
			ParticipantA:  a,
			ParticipantB:  b,
			CreatorID:     creatorID,
			BrandID:       brandID,
			ApplicationID: applicationID,
			CreatedAt:     d.now(),
		}
		err = d.store.InsertConversation(ctx, conv)
		if err == nil {
			metrics.ConversationsCreated.Inc()
			d.logger.Info("conversation created", map[string]interface{}{
				"conversationId": conv.ID,
				"creatorId":      creatorID,
				"brandId":        brandID,
				"applicationId":  applicationID,
			})
			return conv.ID, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return "", apperrors.NewPersistenceError("insert_conversation", err)
		}

		metrics.ConversationConflicts.Inc()
		lastErr = err
		d.logger.Debug("conversation insert lost race, re-reading", map[string]interface{}{
			"creatorId": creatorID,
			"brandId":   brandID,
			"attempt":   attempt,
		})
	}

	return "", apperrors.NewConflictRetryExhaustedError(d.maxAttempts, lastErr)
}

// Dispatch executes one outbox request and records the outcome. The returned
// error is the execution failure, if any; bookkeeping failures are logged.
func (d *Dispatcher) Dispatch(ctx context.Context, req models.SideEffectRequest) (string, error) {
	switch req.Kind {
	case models.SideEffectEnsureConversation:
	default:
		err := apperrors.NewValidationError("unknown side effect kind: " + string(req.Kind))
		d.markFailed(ctx, req, err, true)
		return "", err
	}

	convID, err := d.EnsureConversation(ctx, req.CreatorID, req.BrandID, req.ApplicationID)
	if err != nil {
		final := req.Attempts+1 >= d.maxAttempts
		d.markFailed(ctx, req, err, final)
		return "", err
	}

	if err := d.store.MarkSideEffectDone(ctx, req.ID, convID); err != nil {
		d.logger.Warn("failed to mark side effect done", map[string]interface{}{
			"sideEffectId": req.ID,
			"error":        err,
		})
	}
	return convID, nil
}

func (d *Dispatcher) markFailed(ctx context.Context, req models.SideEffectRequest, cause error, final bool) {
	d.logger.Warn("side effect failed", map[string]interface{}{
		"sideEffectId":  req.ID,
		"applicationId": req.ApplicationID,
		"final":         final,
		"error":         cause,
	})
	if err := d.store.MarkSideEffectFailed(ctx, req.ID, cause.Error(), final); err != nil {
		d.logger.Warn("failed to record side effect failure", map[string]interface{}{
			"sideEffectId": req.ID,
			"error":        err,
		})
	}
}

// DrainResult summarises one DispatchPending pass.
type DrainResult struct {
	Processed int      `json:"processed"`
	Completed int      `json:"completed"`
	Failed    []string `json:"failed,omitempty"`
}

// DispatchPending replays up to limit committed but incomplete requests. It
// stops early only when the context ends.
func (d *Dispatcher) DispatchPending(ctx context.Context, limit int) (DrainResult, error) {
	var res DrainResult

	pending, err := d.store.ListPendingSideEffects(ctx, limit)
	if err != nil {
		return res, apperrors.NewPersistenceError("list_pending_side_effects", err)
	}

	for _, req := range pending {
		if err := ctx.Err(); err != nil {
			return res, apperrors.NewTimeoutError("dispatch_pending", err)
		}
		res.Processed++
		if _, err := d.Dispatch(ctx, req); err != nil {
			res.Failed = append(res.Failed, req.ID)
			continue
		}
		res.Completed++
	}

	if res.Processed > 0 {
		d.logger.Info("side effect outbox drained", map[string]interface{}{
			"processed": res.Processed,
			"completed": res.Completed,
			"failed":    len(res.Failed),
		})
	}
	return res, nil
}
