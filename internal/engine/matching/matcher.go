// Package matching scores creators against campaigns, reading creator
// profiles through a Redis cache in front of the store.
package matching

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/scoring"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store"
)

const (
	CacheKeyPrefix  = "creator:profile:"
	DefaultCacheTTL = 5 * time.Minute
)

// Store is the read surface the matcher needs.
type Store interface {
	GetCreatorProfile(ctx context.Context, id string) (*models.CreatorProfile, error)
	GetCampaign(ctx context.Context, id string) (*models.Campaign, error)
}

type Matcher struct {
	store  Store
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewMatcher builds a matcher. rdb may be nil, which disables caching.
func NewMatcher(st Store, rdb *redis.Client, ttl time.Duration, log logger.Logger) *Matcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Matcher{
		store:  st,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "matcher"}),
	}
}

func CacheKey(creatorID string) string {
	return CacheKeyPrefix + creatorID
}

// Profile returns the creator's profile, or nil when the creator has none.
// Cache failures degrade to a store read.
func (m *Matcher) Profile(ctx context.Context, creatorID string) (*models.CreatorProfile, error) {
	if creatorID == "" {
		return nil, nil
	}
	key := CacheKey(creatorID)

	if m.redis != nil {
		val, err := m.redis.Get(ctx, key).Result()
		switch {
		case err == nil:
			var p models.CreatorProfile
			if jsonErr := json.Unmarshal([]byte(val), &p); jsonErr == nil {
				return &p, nil
			}
			m.logger.Warn("discarding unreadable cached profile", map[string]interface{}{"creatorId": creatorID})
		case !errors.Is(err, redis.Nil):
			m.logger.Warn("profile cache read failed", map[string]interface{}{
				"creatorId": creatorID,
				"error":     err,
			})
		}
	}

	p, err := m.store.GetCreatorProfile(ctx, creatorID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("get_creator_profile", err)
	}

	if m.redis != nil {
		data, _ := json.Marshal(p)
		if err := m.redis.Set(ctx, key, data, m.ttl).Err(); err != nil {
			m.logger.Warn("profile cache write failed", map[string]interface{}{
				"creatorId": creatorID,
				"error":     err,
			})
		}
	}
	return p, nil
}

// Match is a scored creator/campaign pair.
type Match struct {
	CreatorID    string            `json:"creatorId"`
	CampaignID   string            `json:"campaignId"`
	MatchScore   int               `json:"matchScore"`
	Breakdown    scoring.Breakdown `json:"breakdown"`
	ProfileFound bool              `json:"profileFound"`
}

// Match scores creatorID against campaignID. A creator without a profile
// scores neutral; a missing campaign is NOT_FOUND.
func (m *Matcher) Match(ctx context.Context, creatorID, campaignID string) (*Match, error) {
	campaign, err := m.store.GetCampaign(ctx, campaignID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("campaign", campaignID)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("get_campaign", err)
	}

	profile, err := m.Profile(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	b := scoring.Explain(profile, campaign)
	m.logger.Debug("match score calculated", map[string]interface{}{
		"creatorId":  creatorID,
		"campaignId": campaignID,
		"score":      b.Total,
	})
	return &Match{
		CreatorID:    creatorID,
		CampaignID:   campaignID,
		MatchScore:   b.Total,
		Breakdown:    b,
		ProfileFound: profile != nil,
	}, nil
}
