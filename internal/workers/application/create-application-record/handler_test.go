// internal/workers/application/create-application-record/handler_test.go
package createapplicationrecord

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/config"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/workflow"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store/memory"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store/postgres"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestInput() *Input {
	return &Input{
		CampaignID: "c-1",
		Proposal: models.Proposal{
			Message:        "Three reels and a story set for the spring drop.",
			ProposedBudget: "$4,500",
			PortfolioLinks: []string{"https://portfolio.example/reels"},
		},
		ActorID:   "creator-1",
		ActorRole: "creator",
	}
}

func memoryHandler(t *testing.T) (*Handler, *memory.Store) {
	st := memory.New()
	st.PutCampaign(models.Campaign{
		ID: "c-1", BrandID: "brand-1", Categories: []string{"Fashion", "Beauty"},
		BudgetRange: "$4,000 - $5,000", Status: models.CampaignActive,
	})
	st.PutCampaign(models.Campaign{ID: "c-paused", BrandID: "brand-1", Status: models.CampaignPaused})
	log := logger.NewTestLogger(t)
	return NewHandler(LoadConfig(config.WorkerConfig{}), workflow.NewService(st, log), nil, log), st
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	log := logger.NewTestLogger(t)
	svc := workflow.NewService(postgres.New(db, log), log)
	h := NewHandler(LoadConfig(config.WorkerConfig{}), svc, nil, log)
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM creator_profiles`).
		WithArgs("creator-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "categories", "audience_size", "engagement_rate", "portfolio_items"}).
			AddRow("creator-1", "{Fashion}", 50000, 4.2, 1))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM campaigns WHERE id = \$1 FOR UPDATE`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "brand_id", "title", "company", "description", "tags", "categories", "budget_range",
			"required_follower_floor", "deadline", "status", "applications_count", "created_at",
		}).AddRow("c-1", "brand-1", "Spring drop", "Maison", "", "{}", "{Fashion,Beauty}", "$4,000 - $5,000",
			0, nil, "active", 2, created))
	mock.ExpectExec(`INSERT INTO applications`).
		WithArgs(sqlmock.AnyArg(), "c-1", "creator-1", "pending", 80, sqlmock.AnyArg(), "$4,500", "",
			sqlmock.AnyArg(), true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE campaigns SET applications_count = applications_count \+ 1`).
		WithArgs("c-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO application_audit`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.NotEmpty(t, out.ApplicationID)
	assert.Equal(t, "pending", out.ApplicationStatus)
	assert.Equal(t, 80, out.MatchScore)
	assert.Equal(t, "brand-1", out.BrandID)
	_, err = time.Parse(time.RFC3339, out.CreatedAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_Duplicate(t *testing.T) {
	h, st := memoryHandler(t)
	ctx := context.Background()

	first, err := h.Execute(ctx, createTestInput())
	require.NoError(t, err)
	assert.Equal(t, 50, first.MatchScore)

	_, err = h.Execute(ctx, createTestInput())
	assert.ErrorIs(t, err, apperrors.ErrDuplicateApplication)

	c, err := st.GetCampaign(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.ApplicationsCount)
}

func TestHandler_Execute_Rejections(t *testing.T) {
	h, _ := memoryHandler(t)
	ctx := context.Background()

	paused := createTestInput()
	paused.CampaignID = "c-paused"
	_, err := h.Execute(ctx, paused)
	assert.ErrorIs(t, err, apperrors.ErrCampaignNotActive)

	missing := createTestInput()
	missing.CampaignID = "c-404"
	_, err = h.Execute(ctx, missing)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	asBrand := createTestInput()
	asBrand.ActorID, asBrand.ActorRole = "brand-1", "brand"
	_, err = h.Execute(ctx, asBrand)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	badBudget := createTestInput()
	badBudget.Proposal.ProposedBudget = "lots"
	_, err = h.Execute(ctx, badBudget)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestHandler_ParseInput(t *testing.T) {
	h, _ := memoryHandler(t)

	vars, _ := json.Marshal(createTestInput())
	input, err := h.parseInput(string(vars))
	require.NoError(t, err)
	assert.Equal(t, "c-1", input.CampaignID)
	assert.Len(t, input.Proposal.PortfolioLinks, 1)

	_, err = h.parseInput(`{"campaignId":"c-1","actorId":"creator-1","actorRole":"creator","proposal":{"message":""}}`)
	require.Error(t, err)
	stdErr := apperrors.Normalize(err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
	assert.Contains(t, stdErr.Metadata["fields"], "proposal.message")

	_, err = h.parseInput(`{"campaignId":"c-1","actorId":"creator-1","actorRole":"creator","proposal":{"message":"hi","portfolioLinks":["ftp://x"]}}`)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
