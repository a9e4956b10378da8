// internal/workers/application/dispatch-side-effects/handler_test.go
package dispatchsideeffects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/sideeffects"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/workflow"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store/memory"
)

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(config.WorkerConfig{}, config.EngineConfig{})
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.Equal(t, 100, cfg.BatchSize)

	cfg = LoadConfig(config.WorkerConfig{Timeout: 1500}, config.EngineConfig{DispatchBatchSize: 7})
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, 7, cfg.BatchSize)
}

// Transitions committed without a post-commit dispatch (a crash between
// commit and dispatch) leave requests in the outbox; the job completes them.
func TestHandler_Execute_DrainsLeftovers(t *testing.T) {
	st := memory.New()
	st.PutCampaign(models.Campaign{ID: "c-1", BrandID: "brand-1", Status: models.CampaignActive})
	st.PutApplication(models.Application{ID: "a-1", CampaignID: "c-1", CreatorID: "creator-1", Status: models.StatusPending})
	st.PutApplication(models.Application{ID: "a-2", CampaignID: "c-1", CreatorID: "creator-2", Status: models.StatusPending})

	log := logger.NewTestLogger(t)
	svc := workflow.NewService(st, log)
	brand := models.Actor{ID: "brand-1", Role: models.RoleBrand}
	ctx := context.Background()

	_, err := svc.Transition(ctx, "a-1", models.StatusApproved, brand)
	require.NoError(t, err)
	_, err = svc.Transition(ctx, "a-2", models.StatusInDiscussion, brand)
	require.NoError(t, err)
	require.Empty(t, st.Conversations())

	dispatcher := sideeffects.NewDispatcher(st, sideeffects.DefaultMaxAttempts, log)
	h := NewHandler(LoadConfig(config.WorkerConfig{}, config.EngineConfig{}), dispatcher, nil, log)

	out, err := h.Execute(ctx, &Input{})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Processed)
	assert.Equal(t, 2, out.Completed)
	assert.Empty(t, out.FailedRequests)
	assert.False(t, out.OutboxRemaining)
	assert.Len(t, st.Conversations(), 2)

	out, err = h.Execute(ctx, &Input{})
	require.NoError(t, err)
	assert.Zero(t, out.Processed)
}

type stubDispatcher struct {
	limit int
	res   sideeffects.DrainResult
	err   error
}

func (s *stubDispatcher) DispatchPending(_ context.Context, limit int) (sideeffects.DrainResult, error) {
	s.limit = limit
	return s.res, s.err
}

func TestHandler_Execute_Limits(t *testing.T) {
	stub := &stubDispatcher{res: sideeffects.DrainResult{Processed: 5, Completed: 4, Failed: []string{"se-9"}}}
	h := NewHandler(LoadConfig(config.WorkerConfig{}, config.EngineConfig{DispatchBatchSize: 50}), stub, nil, logger.NewNoOpLogger())

	out, err := h.Execute(context.Background(), &Input{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, stub.limit)
	assert.True(t, out.OutboxRemaining)
	assert.Equal(t, []string{"se-9"}, out.FailedRequests)

	_, err = h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 50, stub.limit)

	_, err = h.Execute(context.Background(), &Input{Limit: -1})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	stub.err = apperrors.NewDatabaseQueryFailedError("list_pending_side_effects", errors.New("down"))
	_, err = h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, apperrors.ErrDatabaseQueryFailed)
}
