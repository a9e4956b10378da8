// Package listing builds the scored, filtered and paginated views over
// campaigns (for creators) and applications (for brands).
package listing

import (
	"context"
	"errors"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/filtering"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/scoring"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store"
)

// ProfileSource resolves a creator profile, nil when the creator has none.
type ProfileSource interface {
	Profile(ctx context.Context, creatorID string) (*models.CreatorProfile, error)
}

type Service struct {
	store    store.Store
	profiles ProfileSource
	logger   logger.Logger
}

func NewService(st store.Store, profiles ProfileSource, log logger.Logger) *Service {
	return &Service{
		store:    st,
		profiles: profiles,
		logger:   log.WithFields(map[string]interface{}{"component": "listing"}),
	}
}

// Rank filters, sorts and pages a candidate set.
func Rank(items []filtering.Item, q Query) filtering.Page {
	return filtering.Paginate(filtering.Apply(items, q.Filters, q.SortBy), q.Page, q.PageSize)
}

// CampaignItem flattens a campaign into a listing item.
func CampaignItem(c models.Campaign, score int) filtering.Item {
	return filtering.Item{
		ID:          c.ID,
		Title:       c.Title,
		Company:     c.Company,
		Description: c.Description,
		Tags:        c.Tags,
		Categories:  c.Categories,
		Budget:      c.BudgetRange,
		Status:      string(c.Status),
		MatchScore:  score,
		CreatedAt:   c.CreatedAt,
		Deadline:    c.Deadline,
		Source:      c,
	}
}

// ApplicationItem flattens an application into a listing item as seen by
// viewer.
func ApplicationItem(a models.Application, viewer models.Actor) filtering.Item {
	return filtering.Item{
		ID:          a.ID,
		Title:       a.CreatorID,
		Description: a.Message,
		Budget:      a.ProposedBudget,
		Status:      string(a.Status),
		MatchScore:  a.MatchScore,
		CreatedAt:   a.CreatedAt,
		Source:      a.VisibleTo(viewer),
	}
}

// Opportunities lists campaigns for creatorID, each scored against the
// creator's profile. Without a status filter only active campaigns are shown.
func (s *Service) Opportunities(ctx context.Context, creatorID string, q Query) (filtering.Page, error) {
	var statuses []models.CampaignStatus
	for _, st := range q.Filters.Statuses {
		statuses = append(statuses, models.CampaignStatus(st))
	}
	if len(statuses) == 0 {
		statuses = []models.CampaignStatus{models.CampaignActive}
	}

	campaigns, err := s.store.ListCampaigns(ctx, statuses)
	if err != nil {
		return filtering.Page{}, apperrors.NewPersistenceError("list_campaigns", err)
	}

	var profile *models.CreatorProfile
	if s.profiles != nil && creatorID != "" {
		if profile, err = s.profiles.Profile(ctx, creatorID); err != nil {
			return filtering.Page{}, err
		}
	}

	items := make([]filtering.Item, 0, len(campaigns))
	for _, c := range campaigns {
		items = append(items, CampaignItem(c, scoring.Score(profile, &c)))
	}

	page := Rank(items, q)
	s.logger.Debug("opportunities listed", map[string]interface{}{
		"creatorId":  creatorID,
		"candidates": len(items),
		"matched":    page.Total,
	})
	return page, nil
}

// CampaignApplications lists a campaign's applications for its brand.
func (s *Service) CampaignApplications(ctx context.Context, campaignID string, actor models.Actor, q Query) (filtering.Page, error) {
	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if errors.Is(err, store.ErrNotFound) {
		return filtering.Page{}, apperrors.NewNotFoundError("campaign", campaignID)
	}
	if err != nil {
		return filtering.Page{}, apperrors.NewPersistenceError("get_campaign", err)
	}
	if actor.Role != models.RoleBrand || actor.ID != campaign.BrandID {
		return filtering.Page{}, apperrors.NewUnauthorizedError("only the campaign's brand can list its applications")
	}

	apps, err := s.store.ListApplicationsByCampaign(ctx, campaignID)
	if err != nil {
		return filtering.Page{}, apperrors.NewPersistenceError("list_applications", err)
	}

	items := make([]filtering.Item, 0, len(apps))
	for _, a := range apps {
		items = append(items, ApplicationItem(a, actor))
	}
	return Rank(items, q), nil
}
