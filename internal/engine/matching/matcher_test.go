package matching

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store/memory"
)

var fashionCreator = models.CreatorProfile{
	ID:             "creator-1",
	Categories:     []string{"Fashion"},
	AudienceSize:   50_000,
	EngagementRate: 4.2,
	PortfolioItems: 1,
}

func newStore() *memory.Store {
	st := memory.New()
	st.PutCampaign(models.Campaign{
		ID: "c-1", BrandID: "brand-1", Categories: []string{"Fashion", "Beauty"},
		BudgetRange: "$4,000 - $5,000", Status: models.CampaignActive,
	})
	st.PutCreatorProfile(fashionCreator)
	return st
}

func TestProfile_CacheMissReadsStoreAndCaches(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	m := NewMatcher(newStore(), redisClient, 5*time.Minute, logger.NewTestLogger(t))

	key := CacheKey("creator-1")
	redisMock.ExpectGet(key).RedisNil()
	data, _ := json.Marshal(fashionCreator)
	redisMock.ExpectSet(key, data, 5*time.Minute).SetVal("OK")

	p, err := m.Profile(context.Background(), "creator-1")
	require.NoError(t, err)
	assert.Equal(t, 50_000, p.AudienceSize)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestProfile_CacheHitSkipsStore(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	m := NewMatcher(memory.New(), redisClient, time.Minute, logger.NewTestLogger(t))

	cached := models.CreatorProfile{ID: "creator-7", AudienceSize: 1_000}
	data, _ := json.Marshal(cached)
	redisMock.ExpectGet(CacheKey("creator-7")).SetVal(string(data))

	p, err := m.Profile(context.Background(), "creator-7")
	require.NoError(t, err)
	assert.Equal(t, 1_000, p.AudienceSize)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestProfile_CacheOutageFallsBackToStore(t *testing.T) {
	redisClient, redisMock := redismock.NewClientMock()
	m := NewMatcher(newStore(), redisClient, time.Minute, logger.NewTestLogger(t))

	key := CacheKey("creator-1")
	redisMock.ExpectGet(key).SetErr(errors.New("connection refused"))
	data, _ := json.Marshal(fashionCreator)
	redisMock.ExpectSet(key, data, time.Minute).SetErr(errors.New("connection refused"))

	p, err := m.Profile(context.Background(), "creator-1")
	require.NoError(t, err)
	assert.Equal(t, "creator-1", p.ID)
}

func TestProfile_UnknownCreator(t *testing.T) {
	m := NewMatcher(newStore(), nil, 0, logger.NewNoOpLogger())

	p, err := m.Profile(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = m.Profile(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestMatch_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	m := NewMatcher(newStore(), rdb, 10*time.Minute, logger.NewTestLogger(t))

	match, err := m.Match(context.Background(), "creator-1", "c-1")
	require.NoError(t, err)
	assert.Equal(t, 80, match.MatchScore)
	assert.True(t, match.ProfileFound)
	assert.Equal(t, 20.0, match.Breakdown.CategoryFit)
	assert.Equal(t, 30.0, match.Breakdown.AlignmentFit)

	assert.True(t, mr.Exists(CacheKey("creator-1")))
	assert.Equal(t, 10*time.Minute, mr.TTL(CacheKey("creator-1")))
}

func TestMatch_NeutralAndMissingCampaign(t *testing.T) {
	m := NewMatcher(newStore(), nil, 0, logger.NewNoOpLogger())

	match, err := m.Match(context.Background(), "creator-404", "c-1")
	require.NoError(t, err)
	assert.Equal(t, 50, match.MatchScore)
	assert.False(t, match.ProfileFound)

	_, err = m.Match(context.Background(), "creator-1", "c-404")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
