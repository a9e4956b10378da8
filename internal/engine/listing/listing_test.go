package listing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/filtering"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/matching"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store/memory"
)

func TestParseQuery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		q, err := ParseQuery(map[string]interface{}{}, filtering.SortNewest, 100)
		require.NoError(t, err)
		assert.Equal(t, filtering.SortNewest, q.SortBy)
		assert.Equal(t, 1, q.Page)
		assert.Equal(t, DefaultPageSize, q.PageSize)
	})

	t.Run("json values", func(t *testing.T) {
		q, err := ParseQuery(map[string]interface{}{
			"search":     "  spring ",
			"categories": []interface{}{" Fashion", "fashion", "Beauty", ""},
			"minBudget":  float64(1000),
			"maxBudget":  float64(5000),
			"sortBy":     "BUDGET",
			"page":       float64(2),
			"pageSize":   float64(10),
		}, filtering.SortRelevance, 100)
		require.NoError(t, err)

		assert.Equal(t, "spring", q.Filters.Search)
		assert.Equal(t, []string{"Fashion", "Beauty"}, q.Filters.Categories)
		assert.Equal(t, 1000, *q.Filters.MinBudget)
		assert.Equal(t, 5000, *q.Filters.MaxBudget)
		assert.Equal(t, filtering.SortBudget, q.SortBy)
		assert.Equal(t, 2, q.Page)
		assert.Equal(t, 10, q.PageSize)
	})

	t.Run("url values", func(t *testing.T) {
		q, err := ParseQuery(map[string]interface{}{
			"categories": "Tech, Gaming,tech",
			"statuses":   "pending,approved",
			"page":       "3",
			"minBudget":  "",
		}, filtering.SortRelevance, 100)
		require.NoError(t, err)
		assert.Equal(t, []string{"Tech", "Gaming"}, q.Filters.Categories)
		assert.Equal(t, []string{"pending", "approved"}, q.Filters.Statuses)
		assert.Equal(t, 3, q.Page)
		assert.Nil(t, q.Filters.MinBudget)
	})

	invalid := []map[string]interface{}{
		{"page": float64(0)},
		{"pageSize": float64(101)},
		{"pageSize": "abc"},
		{"sortBy": "popularity"},
		{"minBudget": float64(10), "maxBudget": float64(5)},
		{"minBudget": float64(-1)},
		{"page": 1.5},
		{"categories": float64(3)},
	}
	for _, raw := range invalid {
		_, err := ParseQuery(raw, filtering.SortRelevance, 100)
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed, "%v", raw)
	}
}

func seed() *memory.Store {
	st := memory.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st.PutCampaign(models.Campaign{
		ID: "c-fashion", BrandID: "brand-1", Title: "Spring drop", Company: "Maison",
		Categories: []string{"Fashion", "Beauty"}, BudgetRange: "$4,000 - $5,000",
		Status: models.CampaignActive, CreatedAt: base,
	})
	st.PutCampaign(models.Campaign{
		ID: "c-tech", BrandID: "brand-2", Title: "Gadget review", Company: "Volt",
		Categories: []string{"Tech"}, BudgetRange: "10k+",
		Status: models.CampaignActive, CreatedAt: base.Add(time.Hour),
	})
	st.PutCampaign(models.Campaign{
		ID: "c-old", BrandID: "brand-1", Title: "Winter", Categories: []string{"Fashion"},
		BudgetRange: "negotiable", Status: models.CampaignCompleted, CreatedAt: base.Add(2 * time.Hour),
	})
	st.PutCreatorProfile(models.CreatorProfile{
		ID: "creator-1", Categories: []string{"Fashion"}, AudienceSize: 50_000,
		EngagementRate: 4.2, PortfolioItems: 1,
	})

	st.PutApplication(models.Application{
		ID: "a-1", CampaignID: "c-fashion", CreatorID: "creator-1", Status: models.StatusPending,
		MatchScore: 80, CreatedAt: base, Proposal: models.Proposal{Message: "reels", ProposedBudget: "$4,500"},
		Notes: []models.Note{{ID: "n-1", Text: "promising"}},
	})
	st.PutApplication(models.Application{
		ID: "a-2", CampaignID: "c-fashion", CreatorID: "creator-2", Status: models.StatusRejected,
		MatchScore: 40, CreatedAt: base.Add(time.Minute), Proposal: models.Proposal{Message: "photos"},
	})
	st.PutApplication(models.Application{
		ID: "a-3", CampaignID: "c-fashion", CreatorID: "creator-3", Status: models.StatusPending,
		MatchScore: 80, CreatedAt: base.Add(2 * time.Minute), Proposal: models.Proposal{Message: "tiktok"},
	})
	return st
}

func TestOpportunities_ScoresAgainstCreator(t *testing.T) {
	st := seed()
	svc := NewService(st, matching.NewMatcher(st, nil, 0, logger.NewNoOpLogger()), logger.NewTestLogger(t))

	page, err := svc.Opportunities(context.Background(), "creator-1", Query{SortBy: filtering.SortRelevance, Page: 1, PageSize: 10})
	require.NoError(t, err)

	require.Equal(t, 2, page.Total)
	assert.Equal(t, "c-fashion", page.Items[0].ID)
	assert.Equal(t, 80, page.Items[0].MatchScore)
	assert.Equal(t, "c-tech", page.Items[1].ID)
	assert.Less(t, page.Items[1].MatchScore, 80)
}

func TestOpportunities_FiltersAndBudgetSort(t *testing.T) {
	st := seed()
	svc := NewService(st, nil, logger.NewNoOpLogger())

	page, err := svc.Opportunities(context.Background(), "", Query{
		Filters:  filtering.Filters{Statuses: []string{"active", "completed"}},
		SortBy:   filtering.SortBudget,
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)

	ids := []string{}
	for _, item := range page.Items {
		ids = append(ids, item.ID)
		assert.Equal(t, 50, item.MatchScore)
	}
	assert.Equal(t, []string{"c-tech", "c-fashion", "c-old"}, ids)

	page, err = svc.Opportunities(context.Background(), "", Query{
		Filters:  filtering.Filters{Search: "maison"},
		SortBy:   filtering.SortNewest,
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "c-fashion", page.Items[0].ID)
}

func TestCampaignApplications(t *testing.T) {
	st := seed()
	svc := NewService(st, nil, logger.NewNoOpLogger())
	brand := models.Actor{ID: "brand-1", Role: models.RoleBrand}

	page, err := svc.CampaignApplications(context.Background(), "c-fashion", brand,
		Query{SortBy: filtering.SortRelevance, Page: 1, PageSize: 2})
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	require.Len(t, page.Items, 2)
	// Equal scores break ties newest first.
	assert.Equal(t, "a-3", page.Items[0].ID)
	assert.Equal(t, "a-1", page.Items[1].ID)
	app := page.Items[1].Source.(models.Application)
	assert.Len(t, app.Notes, 1)

	page, err = svc.CampaignApplications(context.Background(), "c-fashion", brand, Query{
		Filters: filtering.Filters{Statuses: []string{"pending"}, Search: "tiktok"},
		SortBy:  filtering.SortRelevance, Page: 1, PageSize: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "a-3", page.Items[0].ID)

	_, err = svc.CampaignApplications(context.Background(), "c-fashion",
		models.Actor{ID: "brand-2", Role: models.RoleBrand}, Query{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.CampaignApplications(context.Background(), "c-404", brand, Query{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
