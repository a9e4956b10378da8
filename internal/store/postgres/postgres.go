// Package postgres implements store.Store on PostgreSQL through lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hazlijohar95/creatorschapter-sub000/internal/common/logger"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/models"
	"github.com/hazlijohar95/creatorschapter-sub000/internal/store"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type Store struct {
	db     *sql.DB
	logger logger.Logger
}

var _ store.Store = (*Store)(nil)

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{db: db, logger: log.WithFields(map[string]interface{}{"component": "postgres-store"})}
}

// translate maps driver errors onto the store sentinels.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return store.ErrDuplicate
		case pqForeignKeyViolation:
			return store.ErrNotFound
		}
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}

// expectRow turns a zero-row update into store.ErrNotFound.
func expectRow(op string, res sql.Result, err error) error {
	if err != nil {
		return translate(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translate("begin", err)
	}
	if err := fn(ctx, &tx{q: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Warn("rollback failed", map[string]interface{}{"error": rbErr})
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return translate("commit", err)
	}
	return nil
}

// --- applications ---

const applicationColumns = `
	a.id, a.campaign_id, a.creator_id, c.brand_id, a.status, a.match_score,
	a.message, a.proposed_budget, a.proposed_timeline, a.portfolio_links,
	a.is_new, a.created_at, a.updated_at`

const applicationFrom = `
	FROM applications a
	JOIN campaigns c ON c.id = a.campaign_id`

func scanApplication(row rowScanner) (*models.Application, error) {
	var a models.Application
	var status string
	err := row.Scan(
		&a.ID, &a.CampaignID, &a.CreatorID, &a.BrandID, &status, &a.MatchScore,
		&a.Message, &a.ProposedBudget, &a.ProposedTimeline, pq.Array(&a.PortfolioLinks),
		&a.IsNew, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	// Rows written under the legacy vocabulary are normalised on read;
	// unknown values are kept so the lifecycle rejects them.
	if st, ok := models.ParseStatus(status); ok {
		a.Status = st
	} else {
		a.Status = models.ApplicationStatus(status)
	}
	return &a, nil
}

func loadNotes(ctx context.Context, q querier, where string, arg interface{}) (map[string][]models.Note, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT n.id, n.application_id, n.author_id, n.text, n.created_at
		FROM application_notes n
		JOIN applications a ON a.id = n.application_id
		WHERE `+where+`
		ORDER BY n.created_at, n.id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make(map[string][]models.Note)
	for rows.Next() {
		var n models.Note
		var applicationID string
		if err := rows.Scan(&n.ID, &applicationID, &n.AuthorID, &n.Text, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes[applicationID] = append(notes[applicationID], n)
	}
	return notes, rows.Err()
}

func getApplication(ctx context.Context, q querier, id string, lock bool) (*models.Application, error) {
	query := `SELECT` + applicationColumns + applicationFrom + ` WHERE a.id = $1`
	if lock {
		query += ` FOR UPDATE OF a`
	}
	a, err := scanApplication(q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, translate("get_application", err)
	}
	notes, err := loadNotes(ctx, q, "a.id = $1", id)
	if err != nil {
		return nil, translate("load_notes", err)
	}
	a.Notes = notes[a.ID]
	return a, nil
}

func (s *Store) GetApplication(ctx context.Context, id string) (*models.Application, error) {
	return getApplication(ctx, s.db, id, false)
}

func (s *Store) ListApplicationsByCampaign(ctx context.Context, campaignID string) ([]models.Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT`+applicationColumns+applicationFrom+` WHERE a.campaign_id = $1 ORDER BY a.created_at, a.id`,
		campaignID)
	if err != nil {
		return nil, translate("list_applications", err)
	}
	defer rows.Close()

	var out []models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, translate("list_applications", err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list_applications", err)
	}
	if len(out) == 0 {
		return out, nil
	}

	notes, err := loadNotes(ctx, s.db, "a.campaign_id = $1", campaignID)
	if err != nil {
		return nil, translate("load_notes", err)
	}
	for i := range out {
		out[i].Notes = notes[out[i].ID]
	}
	return out, nil
}

func (s *Store) UpdateMatchScore(ctx context.Context, applicationID string, score int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE applications SET match_score = $2 WHERE id = $1`, applicationID, score)
	return expectRow("update_match_score", res, err)
}

// --- campaigns and creators ---

const campaignColumns = `
	id, brand_id, title, company, description, tags, categories, budget_range,
	required_follower_floor, deadline, status, applications_count, created_at`

func scanCampaign(row rowScanner) (*models.Campaign, error) {
	var c models.Campaign
	var deadline sql.NullTime
	var status string
	err := row.Scan(
		&c.ID, &c.BrandID, &c.Title, &c.Company, &c.Description,
		pq.Array(&c.Tags), pq.Array(&c.Categories), &c.BudgetRange,
		&c.RequiredFollowerFloor, &deadline, &status, &c.ApplicationsCount, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Status = models.CampaignStatus(status)
	if deadline.Valid {
		d := deadline.Time
		c.Deadline = &d
	}
	return &c, nil
}

func (s *Store) GetCampaign(ctx context.Context, id string) (*models.Campaign, error) {
	c, err := scanCampaign(s.db.QueryRowContext(ctx,
		`SELECT`+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err != nil {
		return nil, translate("get_campaign", err)
	}
	return c, nil
}

func (s *Store) ListCampaigns(ctx context.Context, statuses []models.CampaignStatus) ([]models.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns`
	var args []interface{}
	if len(statuses) > 0 {
		names := make([]string, len(statuses))
		for i, st := range statuses {
			names[i] = string(st)
		}
		query += ` WHERE status = ANY($1)`
		args = append(args, pq.Array(names))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate("list_campaigns", err)
	}
	defer rows.Close()

	var out []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, translate("list_campaigns", err)
		}
		out = append(out, *c)
	}
	return out, translate("list_campaigns", rows.Err())
}

func (s *Store) GetCreatorProfile(ctx context.Context, id string) (*models.CreatorProfile, error) {
	var p models.CreatorProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT id, categories, audience_size, engagement_rate, portfolio_items
		FROM creator_profiles
		WHERE id = $1`, id).Scan(
		&p.ID, pq.Array(&p.Categories), &p.AudienceSize, &p.EngagementRate, &p.PortfolioItems,
	)
	if err != nil {
		return nil, translate("get_creator_profile", err)
	}
	return &p, nil
}

// --- conversations ---

func (s *Store) FindConversation(ctx context.Context, participantA, participantB string) (*models.Conversation, error) {
	var c models.Conversation
	err := s.db.QueryRowContext(ctx, `
		SELECT id, participant_a, participant_b, creator_id, brand_id, application_id, created_at
		FROM conversations
		WHERE participant_a = $1 AND participant_b = $2`, participantA, participantB).Scan(
		&c.ID, &c.ParticipantA, &c.ParticipantB, &c.CreatorID, &c.BrandID, &c.ApplicationID, &c.CreatedAt,
	)
	if err != nil {
		return nil, translate("find_conversation", err)
	}
	return &c, nil
}

func (s *Store) InsertConversation(ctx context.Context, c *models.Conversation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, participant_a, participant_b, creator_id, brand_id, application_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.ParticipantA, c.ParticipantB, c.CreatorID, c.BrandID, c.ApplicationID, c.CreatedAt,
	)
	return translate("insert_conversation", err)
}

// --- side-effect outbox ---

func (s *Store) ListPendingSideEffects(ctx context.Context, limit int) ([]models.SideEffectRequest, error) {
	// LIMIT NULL returns every row.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, application_id, creator_id, brand_id, state, attempts,
		       last_error, conversation_id, created_at
		FROM side_effects
		WHERE state = 'pending'
		ORDER BY created_at, id
		LIMIT NULLIF($1::int, 0)`, limit)
	if err != nil {
		return nil, translate("list_side_effects", err)
	}
	defer rows.Close()

	var out []models.SideEffectRequest
	for rows.Next() {
		var r models.SideEffectRequest
		var kind, state string
		if err := rows.Scan(&r.ID, &kind, &r.ApplicationID, &r.CreatorID, &r.BrandID, &state,
			&r.Attempts, &r.LastError, &r.ConversationID, &r.CreatedAt); err != nil {
			return nil, translate("list_side_effects", err)
		}
		r.Kind = models.SideEffectKind(kind)
		r.State = models.SideEffectState(state)
		out = append(out, r)
	}
	return out, translate("list_side_effects", rows.Err())
}

func (s *Store) MarkSideEffectDone(ctx context.Context, id, conversationID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE side_effects
		SET state = 'done', attempts = attempts + 1, conversation_id = $2, last_error = ''
		WHERE id = $1`, id, conversationID)
	return expectRow("mark_side_effect_done", res, err)
}

func (s *Store) MarkSideEffectFailed(ctx context.Context, id, reason string, final bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE side_effects
		SET attempts = attempts + 1,
		    last_error = $2,
		    state = CASE WHEN $3::boolean THEN 'failed' ELSE state END
		WHERE id = $1`, id, reason, final)
	return expectRow("mark_side_effect_failed", res, err)
}

// --- store.Tx ---

type tx struct {
	q querier
}

func (t *tx) GetApplicationForUpdate(ctx context.Context, id string) (*models.Application, error) {
	return getApplication(ctx, t.q, id, true)
}

func (t *tx) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus, at time.Time) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE applications SET status = $2, is_new = FALSE, updated_at = $3
		WHERE id = $1`, id, string(status), at)
	return expectRow("update_application_status", res, err)
}

func (t *tx) UpdateProposal(ctx context.Context, id string, p models.Proposal, at time.Time) error {
	res, err := t.q.ExecContext(ctx, `
		UPDATE applications
		SET message = $2, proposed_budget = $3, proposed_timeline = $4, portfolio_links = $5, updated_at = $6
		WHERE id = $1`,
		id, p.Message, p.ProposedBudget, p.ProposedTimeline, pq.Array(nonNil(p.PortfolioLinks)), at)
	return expectRow("update_proposal", res, err)
}

func (t *tx) AppendNote(ctx context.Context, applicationID string, n models.Note) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO application_notes (id, application_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		n.ID, applicationID, n.AuthorID, n.Text, n.CreatedAt)
	return translate("append_note", err)
}

func (t *tx) MarkViewed(ctx context.Context, applicationID string) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE applications SET is_new = FALSE WHERE id = $1`, applicationID)
	return expectRow("mark_viewed", res, err)
}

func (t *tx) InsertApplication(ctx context.Context, a *models.Application) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO applications (
			id, campaign_id, creator_id, status, match_score, message, proposed_budget,
			proposed_timeline, portfolio_links, is_new, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID, a.CampaignID, a.CreatorID, string(a.Status), a.MatchScore, a.Message, a.ProposedBudget,
		a.ProposedTimeline, pq.Array(nonNil(a.PortfolioLinks)), a.IsNew, a.CreatedAt, a.UpdatedAt,
	)
	return translate("insert_application", err)
}

func (t *tx) GetCampaignForUpdate(ctx context.Context, id string) (*models.Campaign, error) {
	c, err := scanCampaign(t.q.QueryRowContext(ctx,
		`SELECT`+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, translate("get_campaign_for_update", err)
	}
	return c, nil
}

func (t *tx) IncrementApplicationsCount(ctx context.Context, campaignID string) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE campaigns SET applications_count = applications_count + 1 WHERE id = $1`, campaignID)
	return expectRow("increment_applications_count", res, err)
}

func (t *tx) AppendAuditEntry(ctx context.Context, e models.AuditEntry) error {
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO application_audit (id, application_id, actor_id, actor_role, action, from_status, to_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.ApplicationID, e.ActorID, string(e.ActorRole), e.Action,
		string(e.FromStatus), string(e.ToStatus), e.CreatedAt)
	return translate("append_audit_entry", err)
}

func (t *tx) EnqueueSideEffect(ctx context.Context, r models.SideEffectRequest) error {
	state := r.State
	if state == "" {
		state = models.SideEffectPending
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO side_effects (id, kind, application_id, creator_id, brand_id, state, attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		r.ID, string(r.Kind), r.ApplicationID, r.CreatorID, r.BrandID, string(state), r.Attempts, r.CreatedAt)
	return translate("enqueue_side_effect", err)
}

// nonNil keeps NOT NULL array columns satisfied.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
