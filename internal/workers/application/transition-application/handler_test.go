// internal/workers/application/transition-application/handler_test.go
package transitionapplication

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
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

// ==========================
// Test Helpers
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "application-review",
		ElementId:          "Activity_TransitionApplication",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func newTestHandler(t *testing.T) (*Handler, *memory.Store) {
	st := memory.New()
	st.PutCampaign(models.Campaign{ID: "c-1", BrandID: "brand-1", Status: models.CampaignActive})
	st.PutApplication(models.Application{ID: "a-1", CampaignID: "c-1", CreatorID: "creator-1", Status: models.StatusPending, IsNew: true})
	st.PutApplication(models.Application{ID: "a-2", CampaignID: "c-1", CreatorID: "creator-2", Status: models.StatusRejected})

	log := logger.NewTestLogger(t)
	svc := workflow.NewService(st, log,
		workflow.WithDispatcher(sideeffects.NewDispatcher(st, sideeffects.DefaultMaxAttempts, log)))
	return NewHandler(LoadConfig(config.WorkerConfig{}), svc, nil, log), st
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
		field     string
	}{
		{
			name: "valid",
			variables: map[string]interface{}{
				"applicationId": "a-1", "targetStatus": "approved",
				"actorId": "brand-1", "actorRole": "brand", "campaignTitle": "extra vars are ignored",
			},
		},
		{
			name: "legacy status accepted",
			variables: map[string]interface{}{
				"applicationId": "a-1", "targetStatus": "accepted", "actorId": "brand-1", "actorRole": "brand",
			},
		},
		{
			name:      "missing application id",
			variables: map[string]interface{}{"targetStatus": "approved", "actorId": "brand-1", "actorRole": "brand"},
			wantErr:   true,
			field:     "applicationId",
		},
		{
			name: "unknown status",
			variables: map[string]interface{}{
				"applicationId": "a-1", "targetStatus": "archived", "actorId": "brand-1", "actorRole": "brand",
			},
			wantErr: true,
			field:   "targetStatus",
		},
		{
			name: "unknown role",
			variables: map[string]interface{}{
				"applicationId": "a-1", "targetStatus": "approved", "actorId": "x", "actorRole": "admin",
			},
			wantErr: true,
			field:   "actorRole",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := createMockJob(12345, tt.variables)
			input, err := h.parseInput(job.Variables)

			if tt.wantErr {
				require.Error(t, err)
				stdErr, ok := err.(*apperrors.StandardError)
				require.True(t, ok, "error should be StandardError")
				assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
				assert.Contains(t, stdErr.Metadata["fields"], tt.field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "a-1", input.ApplicationID)
		})
	}

	_, err := h.parseInput("{not json")
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

// ==========================
// Execute Tests
// ==========================

func TestHandler_Execute_Approve(t *testing.T) {
	h, st := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: "a-1", TargetStatus: "approved", ActorID: "brand-1", ActorRole: "brand",
	})
	require.NoError(t, err)

	assert.Equal(t, "approved", out.ApplicationStatus)
	assert.Equal(t, "pending", out.PreviousStatus)
	assert.True(t, out.StatusChanged)
	assert.NotEmpty(t, out.ConversationID)
	assert.Len(t, st.Conversations(), 1)
}

func TestHandler_Execute_Errors(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()

	_, err := h.Execute(ctx, &Input{ApplicationID: "a-2", TargetStatus: "approved", ActorID: "brand-1", ActorRole: "brand"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = h.Execute(ctx, &Input{ApplicationID: "a-1", TargetStatus: "approved", ActorID: "brand-9", ActorRole: "brand"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = h.Execute(ctx, &Input{ApplicationID: "a-404", TargetStatus: "approved", ActorID: "brand-1", ActorRole: "brand"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	bpmn := apperrors.ConvertToBPMNError(apperrors.Normalize(err))
	assert.Equal(t, "APPLICATION_NOT_FOUND", bpmn.Code)
	assert.Zero(t, bpmn.Retries)
}

func TestHandler_Execute_Noop(t *testing.T) {
	h, _ := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: "a-2", TargetStatus: "rejected", ActorID: "brand-1", ActorRole: "brand",
	})
	require.NoError(t, err)
	assert.False(t, out.StatusChanged)
	assert.Equal(t, "rejected", out.ApplicationStatus)
}
