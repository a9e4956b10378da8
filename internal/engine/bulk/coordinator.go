// Package bulk applies one status change to many applications. Items are
// independent: each runs its own transaction and one failure never aborts the
// rest.
package bulk

import (
	"context"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/metrics"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/workflow"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

const (
	DefaultMaxConcurrency = 8
	DefaultItemTimeout    = 5 * time.Second
)

// Transitioner is the single-item operation the coordinator fans out.
type Transitioner interface {
	Transition(ctx context.Context, applicationID string, target models.ApplicationStatus, actor models.Actor) (*workflow.Result, error)
}

type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusError   Status = "error"
)

// Failure is the per-item reason reported back to the caller.
type Failure struct {
	Code      apperrors.ErrorCode `json:"code"`
	Message   string              `json:"message"`
	Retryable bool                `json:"retryable,omitempty"` // resubmitting just this id may succeed
}

// Result lists every requested id exactly once, in Succeeded or as a key of
// Failed. Succeeded keeps request order.
type Result struct {
	Status    Status             `json:"status"`
	Succeeded []string           `json:"succeeded"`
	Failed    map[string]Failure `json:"failed"`
}

type Coordinator struct {
	workflow       Transitioner
	maxConcurrency int
	itemTimeout    time.Duration
	logger         logger.Logger
}

func NewCoordinator(w Transitioner, maxConcurrency int, itemTimeout time.Duration, log logger.Logger) *Coordinator {
	if maxConcurrency < 1 {
		maxConcurrency = DefaultMaxConcurrency
	}
	if itemTimeout <= 0 {
		itemTimeout = DefaultItemTimeout
	}
	return &Coordinator{
		workflow:       w,
		maxConcurrency: maxConcurrency,
		itemTimeout:    itemTimeout,
		logger:         log.WithFields(map[string]interface{}{"component": "bulk-transition"}),
	}
}

// Dedupe trims ids, drops blanks and removes repeats, keeping first occurrence.
func Dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Apply transitions every selected application to target. It fails only for
// an empty selection; item errors are reported in Result.Failed.
func (c *Coordinator) Apply(ctx context.Context, applicationIDs []string, target models.ApplicationStatus, actor models.Actor) (*Result, error) {
	ids := Dedupe(applicationIDs)
	if len(ids) == 0 {
		return nil, apperrors.NewEmptySelectionError()
	}

	errs := make([]error, len(ids))
	p := pool.New().WithMaxGoroutines(min(c.maxConcurrency, len(ids)))
	for i, id := range ids {
		p.Go(func() {
			itemCtx, cancel := context.WithTimeout(ctx, c.itemTimeout)
			defer cancel()
			_, errs[i] = c.workflow.Transition(itemCtx, id, target, actor)
		})
	}
	p.Wait()

	res := &Result{
		Succeeded: make([]string, 0, len(ids)),
		Failed:    make(map[string]Failure),
	}
	for i, id := range ids {
		if errs[i] == nil {
			res.Succeeded = append(res.Succeeded, id)
			metrics.BulkTransitionItems.WithLabelValues("ok", "").Inc()
			continue
		}
		stdErr := apperrors.Normalize(errs[i])
		res.Failed[id] = Failure{
			Code:      stdErr.Code,
			Message:   stdErr.Message,
			Retryable: apperrors.IsRetryableErrorCode(stdErr.Code),
		}
		metrics.BulkTransitionItems.WithLabelValues("failed", string(stdErr.Code)).Inc()
	}

	switch {
	case len(res.Failed) == 0:
		res.Status = StatusOK
	case len(res.Succeeded) == 0:
		res.Status = StatusError
	default:
		res.Status = StatusPartial
	}

	c.logger.Info("bulk transition finished", map[string]interface{}{
		"targetStatus": string(target),
		"actorId":      actor.ID,
		"requested":    len(ids),
		"succeeded":    len(res.Succeeded),
		"failed":       len(res.Failed),
		"status":       string(res.Status),
	})
	return res, nil
}
