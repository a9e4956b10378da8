// internal/workers/matching/calculate-match-score/handler_test.go
package calculatematchscore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/matching"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/scoring"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store/memory"
)

// ==========================
// Test Helper Functions
// ==========================

func setupHandler(t *testing.T) (*Handler, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	st := memory.New()
	st.PutCampaign(models.Campaign{
		ID: "c-1", BrandID: "brand-1", Categories: []string{"Fashion", "Beauty"},
		BudgetRange: "$4,000 - $5,000", Status: models.CampaignActive,
	})
	st.PutCreatorProfile(models.CreatorProfile{
		ID: "creator-1", Categories: []string{"Fashion"}, AudienceSize: 50_000,
		EngagementRate: 4.2, PortfolioItems: 1,
	})

	log := logger.NewTestLogger(t)
	matcher := matching.NewMatcher(st, rdb, time.Minute, log)
	return NewHandler(LoadConfig(config.WorkerConfig{}), matcher, nil, log), mr
}

// ==========================
// Core Functionality Tests
// ==========================

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 10*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
	assert.Equal(t, 2*time.Second, LoadConfig(config.WorkerConfig{Timeout: 2000}).Timeout)
}

func TestHandler_Execute_ScoresAndCachesProfile(t *testing.T) {
	h, mr := setupHandler(t)

	out, err := h.Execute(context.Background(), &Input{CreatorID: "creator-1", CampaignID: "c-1"})
	require.NoError(t, err)

	assert.Equal(t, 80, out.MatchScore)
	assert.Equal(t, 80, out.MatchFactors.Total)
	assert.True(t, out.ProfileFound)
	assert.True(t, mr.Exists(matching.CacheKey("creator-1")))
}

func TestHandler_Execute_NoProfileIsNeutral(t *testing.T) {
	h, _ := setupHandler(t)

	out, err := h.Execute(context.Background(), &Input{CreatorID: "creator-new", CampaignID: "c-1"})
	require.NoError(t, err)

	assert.Equal(t, scoring.NeutralScore, out.MatchScore)
	assert.Equal(t, scoring.NeutralBreakdown(), out.MatchFactors)
	assert.False(t, out.ProfileFound)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	h, _ := setupHandler(t)
	ctx := context.Background()

	_, err := h.Execute(ctx, &Input{CreatorID: "creator-1"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	_, err = h.Execute(ctx, &Input{CreatorID: "creator-1", CampaignID: "c-404"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestHandler_Execute_CacheOutageFallsBackToStore(t *testing.T) {
	h, mr := setupHandler(t)
	mr.Close()

	out, err := h.Execute(context.Background(), &Input{CreatorID: "creator-1", CampaignID: "c-1"})
	require.NoError(t, err)
	assert.Equal(t, 80, out.MatchScore)
}
