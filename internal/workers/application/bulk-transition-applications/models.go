// internal/workers/application/bulk-transition-applications/models.go
package bulktransitionapplications

import "github.com/hazlijohar95/creatorschapter-sub000/internal/engine/bulk"

type Input struct {
	ApplicationIDs []string `json:"applicationIds"`
	TargetStatus   string   `json:"targetStatus"`
	ActorID        string   `json:"actorId"`
	ActorRole      string   `json:"actorRole"`
}

type Output struct {
	BulkStatus     string                  `json:"bulkStatus"`
	Succeeded      []string                `json:"succeeded"`
	Failed         map[string]bulk.Failure `json:"failed"`
	SucceededCount int                     `json:"succeededCount"`
	FailedCount    int                     `json:"failedCount"`
}
