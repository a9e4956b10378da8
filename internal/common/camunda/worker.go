package camunda

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/metrics"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/observability"
)

// JobFunc executes one job. variables is the raw job variable document.
type JobFunc func(ctx context.Context, variables string) (interface{}, error)

// JobRunner is the shared job lifecycle for every worker: decode, run under a
// deadline, complete or hand the error to the BPMN error handler, and record
// metrics.
type JobRunner struct {
	taskType   string
	timeout    time.Duration
	logger     logger.Logger
	recorder   observability.Recorder
	errHandler *apperrors.ErrorHandler
}

func NewJobRunner(taskType string, timeout time.Duration, recorder observability.Recorder, log logger.Logger) *JobRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	scoped := log.WithFields(map[string]interface{}{"taskType": taskType})
	return &JobRunner{
		taskType:   taskType,
		timeout:    timeout,
		logger:     scoped,
		recorder:   recorder,
		errHandler: apperrors.NewErrorHandler(scoped),
	}
}

func (r *JobRunner) Run(client worker.JobClient, job entities.Job, fn JobFunc) {
	r.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(r.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(r.taskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	output, err := fn(ctx, job.Variables)
	status := "completed"
	if err == nil {
		err = r.complete(ctx, client, job, output)
	}
	if err != nil {
		status = "failed"
		metrics.WorkerJobsFailed.WithLabelValues(r.taskType, string(apperrors.CodeOf(err))).Inc()
		r.errHandler.HandleJobError(ctx, client, job, err)
	} else {
		metrics.WorkerJobsCompleted.WithLabelValues(r.taskType).Inc()
	}

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(r.taskType).Observe(elapsed.Seconds())
	if r.recorder != nil {
		r.recorder.RecordJobProcessed(ctx, r.taskType, status)
		r.recorder.RecordJobDuration(ctx, r.taskType, elapsed, status)
	}
}

func (r *JobRunner) complete(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	// A lost complete is not a job failure: the job times out and is
	// redelivered, and every handler is idempotent on retry.
	if _, err := cmd.Send(ctx); err != nil {
		r.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
	}
	return nil
}

// DecodeVariables unmarshals job variables, reporting malformed input as a
// validation failure.
func DecodeVariables(variables string, v interface{}) error {
	if err := json.Unmarshal([]byte(variables), v); err != nil {
		return apperrors.NewValidationError("parse input: " + err.Error())
	}
	return nil
}
