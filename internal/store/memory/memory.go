// Package memory is an in-process implementation of store.Store. It backs the
// "memory" database driver and the engine tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store"
)

// Store keeps all records behind one lock. WithinTx holds the write lock for
// the whole transaction and restores a snapshot when fn fails.
type Store struct {
	mu      sync.RWMutex
	state   *state
	latency time.Duration
	faults  map[string]error
}

type state struct {
	applications  map[string]models.Application
	campaigns     map[string]models.Campaign
	creators      map[string]models.CreatorProfile
	conversations map[string]models.Conversation
	audit         []models.AuditEntry
	sideEffects   []models.SideEffectRequest
}

type Option func(*Store)

// WithLatency delays every operation, honouring context cancellation.
func WithLatency(d time.Duration) Option {
	return func(s *Store) { s.latency = d }
}

func New(opts ...Option) *Store {
	s := &Store{
		state: &state{
			applications:  make(map[string]models.Application),
			campaigns:     make(map[string]models.Campaign),
			creators:      make(map[string]models.CreatorProfile),
			conversations: make(map[string]models.Conversation),
		},
		faults: make(map[string]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

// FailNext makes the next call to the named operation return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// begin applies latency and context checks. Callers must not hold mu.
func (s *Store) begin(ctx context.Context) error {
	if s.latency > 0 {
		select {
		case <-time.After(s.latency):
		case <-ctx.Done():
			return fmt.Errorf("memory store: %w", ctx.Err())
		}
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory store: %w", err)
	}
	return nil
}

// fault consumes an injected failure. Callers must hold mu.
func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	return nil
}

func (st *state) clone() *state {
	c := &state{
		applications:  make(map[string]models.Application, len(st.applications)),
		campaigns:     make(map[string]models.Campaign, len(st.campaigns)),
		creators:      make(map[string]models.CreatorProfile, len(st.creators)),
		conversations: make(map[string]models.Conversation, len(st.conversations)),
		audit:         slices.Clone(st.audit),
		sideEffects:   slices.Clone(st.sideEffects),
	}
	for k, v := range st.applications {
		c.applications[k] = copyApplication(v)
	}
	for k, v := range st.campaigns {
		c.campaigns[k] = v
	}
	for k, v := range st.creators {
		c.creators[k] = v
	}
	for k, v := range st.conversations {
		c.conversations[k] = v
	}
	return c
}

func copyApplication(a models.Application) models.Application {
	a.Notes = slices.Clone(a.Notes)
	a.PortfolioLinks = slices.Clone(a.PortfolioLinks)
	return a
}

func pairKey(a, b string) string {
	return a + "\x00" + b
}

// withBrand fills the owning brand from the campaign. Callers must hold mu.
func (st *state) withBrand(a models.Application) *models.Application {
	out := copyApplication(a)
	if c, ok := st.campaigns[a.CampaignID]; ok {
		out.BrandID = c.BrandID
	}
	return &out
}

// --- seeding and inspection ---

func (s *Store) PutCampaign(c models.Campaign) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.campaigns[c.ID] = c
}

func (s *Store) PutCreatorProfile(p models.CreatorProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.creators[p.ID] = p
}

func (s *Store) PutApplication(a models.Application) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.BrandID = ""
	s.state.applications[a.ID] = copyApplication(a)
}

// AuditEntries returns the audit trail of one application in append order.
func (s *Store) AuditEntries(applicationID string) []models.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AuditEntry
	for _, e := range s.state.audit {
		if e.ApplicationID == applicationID {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) SideEffects() []models.SideEffectRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.state.sideEffects)
}

func (s *Store) Conversations() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Conversation, 0, len(s.state.conversations))
	for _, c := range s.state.conversations {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- store.Store ---

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	if err := s.begin(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, &tx{s: s}); err != nil {
		s.state = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.state = snapshot
		return fmt.Errorf("memory store: commit: %w", err)
	}
	return nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.state.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return s.state.withBrand(a), nil
}

func (s *Store) ListApplicationsByCampaign(ctx context.Context, campaignID string) ([]models.Application, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Application
	for _, a := range s.state.applications {
		if a.CampaignID == campaignID {
			out = append(out, *s.state.withBrand(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) UpdateMatchScore(ctx context.Context, applicationID string, score int) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.state.applications[applicationID]
	if !ok {
		return store.ErrNotFound
	}
	a.MatchScore = score
	s.state.applications[applicationID] = a
	return nil
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.state.campaigns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) ListCampaigns(ctx context.Context, statuses []models.CampaignStatus) ([]models.Campaign, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Campaign
	for _, c := range s.state.campaigns {
		if len(statuses) == 0 || slices.Contains(statuses, c.Status) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetCreatorProfile(ctx context.Context, id string) (*models.CreatorProfile, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.state.creators[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (s *Store) FindConversation(ctx context.Context, participantA, participantB string) (*models.Conversation, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("FindConversation"); err != nil {
		return nil, err
	}
	c, ok := s.state.conversations[pairKey(participantA, participantB)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) InsertConversation(ctx context.Context, c *models.Conversation) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault("InsertConversation"); err != nil {
		return err
	}
	key := pairKey(c.ParticipantA, c.ParticipantB)
	if _, exists := s.state.conversations[key]; exists {
		return store.ErrDuplicate
	}
	s.state.conversations[key] = *c
	return nil
}

func (s *Store) ListPendingSideEffects(ctx context.Context, limit int) ([]models.SideEffectRequest, error) {
	if err := s.begin(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.SideEffectRequest
	for _, r := range s.state.sideEffects {
		if r.State != models.SideEffectPending {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) MarkSideEffectDone(ctx context.Context, id, conversationID string) error {
	return s.updateSideEffect(ctx, id, func(r *models.SideEffectRequest) {
		r.Attempts++
		r.State = models.SideEffectDone
		r.ConversationID = conversationID
		r.LastError = ""
	})
}

func (s *Store) MarkSideEffectFailed(ctx context.Context, id, reason string, final bool) error {
	return s.updateSideEffect(ctx, id, func(r *models.SideEffectRequest) {
		r.Attempts++
		r.LastError = reason
		if final {
			r.State = models.SideEffectFailed
		}
	})
}

func (s *Store) updateSideEffect(ctx context.Context, id string, fn func(*models.SideEffectRequest)) error {
	if err := s.begin(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.sideEffects {
		if s.state.sideEffects[i].ID == id {
			fn(&s.state.sideEffects[i])
			return nil
		}
	}
	return store.ErrNotFound
}

// --- store.Tx ---

// tx runs with s.mu held by WithinTx.
type tx struct {
	s *Store
}

func (t *tx) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("memory store: %s: %w", op, err)
	}
	return t.s.fault(op)
}

func (t *tx) GetApplicationForUpdate(ctx context.Context, id string) (*models.Application, error) {
	if err := t.check(ctx, "GetApplicationForUpdate"); err != nil {
		return nil, err
	}
	a, ok := t.s.state.applications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return t.s.state.withBrand(a), nil
}

func (t *tx) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, at time.Time) error {
	if err := t.check(ctx, "UpdateApplicationStatus"); err != nil {
		return err
	}
	a, ok := t.s.state.applications[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Status = status
	a.IsNew = false
	a.UpdatedAt = at
	t.s.state.applications[id] = a
	return nil
}

func (t *tx) UpdateProposal(ctx context.Context, id string, proposal models.Proposal, at time.Time) error {
	if err := t.check(ctx, "UpdateProposal"); err != nil {
		return err
	}
	a, ok := t.s.state.applications[id]
	if !ok {
		return store.ErrNotFound
	}
	a.Proposal = proposal
	a.PortfolioLinks = slices.Clone(proposal.PortfolioLinks)
	a.UpdatedAt = at
	t.s.state.applications[id] = a
	return nil
}

func (t *tx) AppendNote(ctx context.Context, applicationID string, note models.Note) error {
	if err := t.check(ctx, "AppendNote"); err != nil {
		return err
	}
	a, ok := t.s.state.applications[applicationID]
	if !ok {
		return store.ErrNotFound
	}
	a.Notes = append(slices.Clone(a.Notes), note)
	t.s.state.applications[applicationID] = a
	return nil
}

func (t *tx) MarkViewed(ctx context.Context, applicationID string) error {
	if err := t.check(ctx, "MarkViewed"); err != nil {
		return err
	}
	a, ok := t.s.state.applications[applicationID]
	if !ok {
		return store.ErrNotFound
	}
	a.IsNew = false
	t.s.state.applications[applicationID] = a
	return nil
}

func (t *tx) InsertApplication(ctx context.Context, app *models.Application) error {
	if err := t.check(ctx, "InsertApplication"); err != nil {
		return err
	}
	for _, existing := range t.s.state.applications {
		if existing.CampaignID == app.CampaignID && existing.CreatorID == app.CreatorID {
			return store.ErrDuplicate
		}
	}
	a := copyApplication(*app)
	a.BrandID = ""
	t.s.state.applications[a.ID] = a
	return nil
}

func (t *tx) GetCampaignForUpdate(ctx context.Context, id string) (*models.Campaign, error) {
	if err := t.check(ctx, "GetCampaignForUpdate"); err != nil {
		return nil, err
	}
	c, ok := t.s.state.campaigns[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (t *tx) IncrementApplicationsCount(ctx context.Context, campaignID string) error {
	if err := t.check(ctx, "IncrementApplicationsCount"); err != nil {
		return err
	}
	c, ok := t.s.state.campaigns[campaignID]
	if !ok {
		return store.ErrNotFound
	}
	c.ApplicationsCount++
	t.s.state.campaigns[campaignID] = c
	return nil
}

func (t *tx) AppendAuditEntry(ctx context.Context, entry models.AuditEntry) error {
	if err := t.check(ctx, "AppendAuditEntry"); err != nil {
		return err
	}
	t.s.state.audit = append(t.s.state.audit, entry)
	return nil
}

func (t *tx) EnqueueSideEffect(ctx context.Context, req models.SideEffectRequest) error {
	if err := t.check(ctx, "EnqueueSideEffect"); err != nil {
		return err
	}
	t.s.state.sideEffects = append(t.s.state.sideEffects, req)
	return nil
}
