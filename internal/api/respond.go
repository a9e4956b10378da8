package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
)

// StatusFor maps an error code to the HTTP status the boundary answers with.
func StatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeValidationFailed, apperrors.ErrCodeEmptySelection:
		return http.StatusBadRequest
	case apperrors.ErrCodeUnauthorized:
		return http.StatusForbidden
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeInvalidTransition, apperrors.ErrCodeCampaignNotActive,
		apperrors.ErrCodeDuplicateApplication, apperrors.ErrCodeProposalLocked:
		return http.StatusConflict
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case apperrors.ErrCodeConflictRetryExhausted, apperrors.ErrCodeDatabaseQueryFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code     apperrors.ErrorCode    `json:"code"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {error: {code, message}}. Internal causes are
// logged, not returned.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	stdErr := apperrors.Normalize(err)
	status := StatusFor(stdErr.Code)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", map[string]interface{}{
			"code":  string(stdErr.Code),
			"error": err,
		})
	}

	body := errorBody{Error: errorDetail{Code: stdErr.Code, Message: stdErr.Message}}
	if status < http.StatusInternalServerError {
		body.Error.Details = stdErr.Details
		body.Error.Metadata = stdErr.Metadata
	}
	writeJSON(w, status, body)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apperrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}
