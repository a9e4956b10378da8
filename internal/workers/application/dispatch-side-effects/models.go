// internal/workers/application/dispatch-side-effects/models.go
package dispatchsideeffects

type Input struct {
	Limit int `json:"limit"`
}

type Output struct {
	Processed       int      `json:"processed"`
	Completed       int      `json:"completed"`
	FailedRequests  []string `json:"failedRequests"`
	OutboxRemaining bool     `json:"outboxRemaining"`
}
