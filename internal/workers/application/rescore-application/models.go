// internal/workers/application/rescore-application/models.go
package rescoreapplication

type Input struct {
	ApplicationID string `json:"applicationId"`
}

type Output struct {
	ApplicationID string `json:"applicationId"`
	MatchScore    int    `json:"matchScore"`
}
