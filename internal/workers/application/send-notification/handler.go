// internal/workers/application/send-notification/handler.go
package sendnotification

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/camunda"
	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/notify"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store"
)

const (
	TaskType = "send-notification"
)

// ApplicationReader resolves the parties of the application being announced.
type ApplicationReader interface {
	GetApplication(ctx context.Context, id string) (*models.Application, error)
}

// Handler publishes a status-changed event from a process, for BPMN models
// that announce transitions explicitly instead of relying on the engine's
// post-commit publish.
type Handler struct {
	config   *Config
	apps     ApplicationReader
	notifier notify.Notifier
	runner   *camunda.JobRunner
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(config *Config, apps ApplicationReader, notifier notify.Notifier, recorder observability.Recorder, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		apps:     apps,
		notifier: notifier,
		runner:   camunda.NewJobRunner(TaskType, config.Timeout, recorder, log),
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:      time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.runner.Run(client, job, func(ctx context.Context, variables string) (interface{}, error) {
		var input Input
		if err := camunda.DecodeVariables(variables, &input); err != nil {
			return nil, err
		}
		return h.Execute(ctx, &input)
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.ApplicationID) == "" {
		return nil, apperrors.NewValidationError("applicationId: is required")
	}

	now := h.now().UTC()
	out := &Output{NotificationID: uuid.NewString(), SentAt: now.Format(time.RFC3339)}
	if !h.config.Enabled {
		out.Status = StatusDisabled
		h.logger.Debug("notifications disabled, skipping", map[string]interface{}{"applicationId": input.ApplicationID})
		return out, nil
	}

	app, err := h.apps.GetApplication(ctx, input.ApplicationID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.NewNotFoundError("application", input.ApplicationID)
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError("get_application", err)
	}

	to := app.Status
	if s, ok := models.ParseStatus(input.ToStatus); ok {
		to = s
	}
	from, _ := models.ParseStatus(input.FromStatus)

	event := models.StatusChangedEvent{
		Type:          models.EventApplicationStatusChanged,
		ApplicationID: app.ID,
		CampaignID:    app.CampaignID,
		CreatorID:     app.CreatorID,
		BrandID:       app.BrandID,
		FromStatus:    from,
		ToStatus:      to,
		ActorID:       input.ActorID,
		OccurredAt:    now,
	}
	if err := h.notifier.Notify(ctx, event); err != nil {
		return nil, err
	}

	out.Status = StatusSent
	h.logger.Info("notification sent", map[string]interface{}{
		"notificationId": out.NotificationID,
		"applicationId":  app.ID,
		"toStatus":       string(to),
		"transport":      h.config.Transport,
	})
	return out, nil
}
