// internal/workers/application/rescore-application/handler_test.go
package rescoreapplication

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/workflow"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store/memory"
)

func newTestHandler(t *testing.T) (*Handler, *memory.Store) {
	st := memory.New()
	st.PutCampaign(models.Campaign{
		ID: "c-1", BrandID: "brand-1", Categories: []string{"Fashion", "Beauty"},
		BudgetRange: "$4,000 - $5,000", Status: models.CampaignActive,
	})
	st.PutApplication(models.Application{ID: "a-1", CampaignID: "c-1", CreatorID: "creator-1", Status: models.StatusPending})

	log := logger.NewTestLogger(t)
	return NewHandler(LoadConfig(config.WorkerConfig{}), workflow.NewService(st, log), nil, log), st
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 15*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
	assert.Equal(t, 3*time.Second, LoadConfig(config.WorkerConfig{Timeout: 3000}).Timeout)
}

func TestHandler_Execute_Rescore(t *testing.T) {
	h, st := newTestHandler(t)
	ctx := context.Background()

	out, err := h.Execute(ctx, &Input{ApplicationID: "a-1"})
	require.NoError(t, err)
	assert.Equal(t, 50, out.MatchScore)

	st.PutCreatorProfile(models.CreatorProfile{
		ID: "creator-1", Categories: []string{"Fashion"}, AudienceSize: 50000, EngagementRate: 4.2, PortfolioItems: 1,
	})
	out, err = h.Execute(ctx, &Input{ApplicationID: " a-1 "})
	require.NoError(t, err)
	assert.Equal(t, "a-1", out.ApplicationID)
	assert.Equal(t, 80, out.MatchScore)

	app, err := st.GetApplication(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, 80, app.MatchScore)
}

func TestHandler_Execute_Errors(t *testing.T) {
	h, _ := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = h.Execute(context.Background(), &Input{ApplicationID: "a-404"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
