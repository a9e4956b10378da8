// internal/workers/application/transition-application/models.go
package transitionapplication

type Input struct {
	ApplicationID string `json:"applicationId"`
	TargetStatus  string `json:"targetStatus"`
	ActorID       string `json:"actorId"`
	ActorRole     string `json:"actorRole"`
}

type Output struct {
	ApplicationID     string `json:"applicationId"`
	ApplicationStatus string `json:"applicationStatus"`
	PreviousStatus    string `json:"previousStatus"`
	StatusChanged     bool   `json:"statusChanged"`
	ConversationID    string `json:"conversationId,omitempty"`
}
