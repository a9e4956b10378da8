package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/hazlijohar95/creatorschapter-sub000/internal/common/errors"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/bulk"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/filtering"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/listing"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/engine/workflow"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
)

type transitionRequest struct {
	Status string `json:"status"`
}

type bulkTransitionRequest struct {
	ApplicationIDs []string `json:"applicationIds"`
	Status         string   `json:"status"`
}

// transitionResponse is the envelope shared by single and bulk transitions.
type transitionResponse struct {
	Status    bulk.Status             `json:"status"`
	Succeeded []string                `json:"succeeded"`
	Failed    map[string]bulk.Failure `json:"failed"`
	Result    *workflow.Result        `json:"result,omitempty"`
}

type noteRequest struct {
	Text string `json:"text"`
}

func (s *Server) transitionApplication(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req transitionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}

	res, err := s.deps.Workflow.Transition(r.Context(), id, models.ApplicationStatus(req.Status), actorFrom(r))
	if err != nil {
		stdErr := apperrors.Normalize(err)
		writeJSON(w, StatusFor(stdErr.Code), transitionResponse{
			Status:    bulk.StatusError,
			Succeeded: []string{},
			Failed:    map[string]bulk.Failure{id: {Code: stdErr.Code, Message: stdErr.Message}},
		})
		return
	}

	writeJSON(w, http.StatusOK, transitionResponse{
		Status:    bulk.StatusOK,
		Succeeded: []string{id},
		Failed:    map[string]bulk.Failure{},
		Result:    res,
	})
}

// bulkTransition answers 200 whenever the batch ran, including when every
// item failed; callers read the envelope status.
func (s *Server) bulkTransition(w http.ResponseWriter, r *http.Request) {
	var req bulkTransitionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	target, ok := models.ParseStatus(req.Status)
	if !ok {
		writeError(w, s.logger, apperrors.NewValidationError("status: unknown target status "+req.Status))
		return
	}

	res, err := s.deps.Bulk.Apply(r.Context(), req.ApplicationIDs, target, actorFrom(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, transitionResponse{
		Status:    res.Status,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	})
}

func (s *Server) submitApplication(w http.ResponseWriter, r *http.Request) {
	var req workflow.SubmitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	app, err := s.deps.Workflow.Submit(r.Context(), req, actorFrom(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

func (s *Server) getApplication(w http.ResponseWriter, r *http.Request) {
	app, err := s.deps.Workflow.Get(r.Context(), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) updateProposal(w http.ResponseWriter, r *http.Request) {
	var proposal models.Proposal
	if err := decodeBody(r, &proposal); err != nil {
		writeError(w, s.logger, err)
		return
	}
	app, err := s.deps.Workflow.UpdateProposal(r.Context(), chi.URLParam(r, "id"), proposal, actorFrom(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

func (s *Server) addNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	note, err := s.deps.Workflow.AddNote(r.Context(), chi.URLParam(r, "id"), req.Text, actorFrom(r))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) markViewed(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Workflow.MarkViewed(r.Context(), chi.URLParam(r, "id"), actorFrom(r)); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listingQuery reads filters from the URL. Repeated keys are joined with
// commas, the same form as a comma-separated value.
func (s *Server) listingQuery(r *http.Request) (listing.Query, error) {
	raw := make(map[string]interface{})
	for key, values := range r.URL.Query() {
		raw[key] = strings.Join(values, ",")
	}
	return listing.ParseQuery(raw, filtering.SortRelevance, s.deps.MaxPageSize)
}

func (s *Server) listOpportunities(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if actor.Role != models.RoleCreator {
		writeError(w, s.logger, apperrors.NewUnauthorizedError("opportunities are listed for creators"))
		return
	}
	q, err := s.listingQuery(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	page, err := s.deps.Lister.Opportunities(r.Context(), actor.ID, q)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) listCampaignApplications(w http.ResponseWriter, r *http.Request) {
	q, err := s.listingQuery(r)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	page, err := s.deps.Lister.CampaignApplications(r.Context(), chi.URLParam(r, "id"), actorFrom(r), q)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// matchScore scores a creator against the campaign. Creators may only score
// themselves; brands name the creator with ?creatorId=.
func (s *Server) matchScore(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	creatorID := r.URL.Query().Get("creatorId")
	if actor.Role == models.RoleCreator {
		if creatorID != "" && creatorID != actor.ID {
			writeError(w, s.logger, apperrors.NewUnauthorizedError("creators can only score themselves"))
			return
		}
		creatorID = actor.ID
	}
	if creatorID == "" {
		writeError(w, s.logger, apperrors.NewValidationError("creatorId: is required"))
		return
	}

	m, err := s.deps.Matcher.Match(r.Context(), creatorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
