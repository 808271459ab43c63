package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"icp_server/core/domain"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ProspectAdapter implements domain.ProspectRepository.
type ProspectAdapter struct {
	db *sqlx.DB
}

// NewProspectAdapter creates a new ProspectAdapter.
func NewProspectAdapter(db *sqlx.DB) *ProspectAdapter {
	return &ProspectAdapter{db: db}
}

// prospectRow represents the database row.
type prospectRow struct {
	ID         int64 `db:"id"`
	CampaignID int64 `db:"campaign_id"`

	FullName    string `db:"full_name"`
	Title       string `db:"title"`
	Industry    string `db:"industry"`
	Bio         string `db:"bio"`
	LinkedInURL string `db:"linkedin_url"`

	CompanyName        string `db:"company_name"`
	EmployeeCountRange string `db:"employee_count_range"`

	Education1 string `db:"education_1"`
	Education2 string `db:"education_2"`

	FitScore              sql.NullInt32  `db:"fit_score"`
	FitLabel              sql.NullInt32  `db:"fit_label"`
	FitReason             sql.NullString `db:"fit_reason"`
	LastScoredRulesetHash sql.NullString `db:"last_scored_ruleset_hash"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *prospectRow) toEntity() *domain.Prospect {
	p := &domain.Prospect{
		ID:                 r.ID,
		CampaignID:         r.CampaignID,
		FullName:           r.FullName,
		Title:              r.Title,
		Industry:           r.Industry,
		Bio:                r.Bio,
		LinkedInURL:        r.LinkedInURL,
		CompanyName:        r.CompanyName,
		EmployeeCountRange: r.EmployeeCountRange,
		Education1:         r.Education1,
		Education2:         r.Education2,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
	if r.FitScore.Valid {
		score := int(r.FitScore.Int32)
		p.FitScore = &score
	}
	if r.FitLabel.Valid {
		label := domain.FitLabel(r.FitLabel.Int32)
		p.FitLabel = &label
	}
	if r.FitReason.Valid {
		p.FitReason = &r.FitReason.String
	}
	if r.LastScoredRulesetHash.Valid {
		p.LastScoredRulesetHash = &r.LastScoredRulesetHash.String
	}
	return p
}

// GetByID retrieves a prospect by ID. Returns nil when not found.
func (a *ProspectAdapter) GetByID(ctx context.Context, id int64) (*domain.Prospect, error) {
	var row prospectRow
	query := `SELECT * FROM prospects WHERE id = $1`

	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get prospect: %w", err)
	}

	return row.toEntity(), nil
}

// ListByCampaign retrieves all prospects assigned to a campaign.
func (a *ProspectAdapter) ListByCampaign(ctx context.Context, campaignID int64) ([]*domain.Prospect, error) {
	var rows []prospectRow
	query := `SELECT * FROM prospects WHERE campaign_id = $1 ORDER BY id`

	if err := a.db.SelectContext(ctx, &rows, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to list prospects: %w", err)
	}

	prospects := make([]*domain.Prospect, len(rows))
	for i, row := range rows {
		prospects[i] = row.toEntity()
	}

	return prospects, nil
}

// ListPageByCampaign retrieves one page of a campaign's prospects.
func (a *ProspectAdapter) ListPageByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]*domain.Prospect, error) {
	var rows []prospectRow
	query := `SELECT * FROM prospects WHERE campaign_id = $1 ORDER BY id LIMIT $2 OFFSET $3`

	if err := a.db.SelectContext(ctx, &rows, query, campaignID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list prospect page: %w", err)
	}

	prospects := make([]*domain.Prospect, len(rows))
	for i, row := range rows {
		prospects[i] = row.toEntity()
	}

	return prospects, nil
}

// ListByIDs retrieves specific prospects, scoped to the campaign so a job
// can never score rows that moved to another campaign since enqueue.
func (a *ProspectAdapter) ListByIDs(ctx context.Context, campaignID int64, ids []int64) ([]*domain.Prospect, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var rows []prospectRow
	query := `SELECT * FROM prospects WHERE campaign_id = $1 AND id = ANY($2) ORDER BY id`

	if err := a.db.SelectContext(ctx, &rows, query, campaignID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to list prospects by ids: %w", err)
	}

	prospects := make([]*domain.Prospect, len(rows))
	for i, row := range rows {
		prospects[i] = row.toEntity()
	}

	return prospects, nil
}

// ListIDsByCampaign retrieves the IDs of all prospects in a campaign.
func (a *ProspectAdapter) ListIDsByCampaign(ctx context.Context, campaignID int64) ([]int64, error) {
	var ids []int64
	query := `SELECT id FROM prospects WHERE campaign_id = $1 ORDER BY id`

	if err := a.db.SelectContext(ctx, &ids, query, campaignID); err != nil {
		return nil, fmt.Errorf("failed to list prospect ids: %w", err)
	}

	return ids, nil
}

// CountByCampaign counts the prospects in a campaign.
func (a *ProspectAdapter) CountByCampaign(ctx context.Context, campaignID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM prospects WHERE campaign_id = $1`

	if err := a.db.GetContext(ctx, &count, query, campaignID); err != nil {
		return 0, fmt.Errorf("failed to count prospects: %w", err)
	}

	return count, nil
}

// ListStaleIDs retrieves prospects whose stored ruleset hash differs from the
// current one. IS DISTINCT FROM also catches never-scored rows (NULL hash).
func (a *ProspectAdapter) ListStaleIDs(ctx context.Context, campaignID int64, currentHash string) ([]int64, error) {
	var ids []int64
	query := `
		SELECT id FROM prospects
		WHERE campaign_id = $1
		  AND last_scored_ruleset_hash IS DISTINCT FROM $2
		ORDER BY id`

	if err := a.db.SelectContext(ctx, &ids, query, campaignID, currentHash); err != nil {
		return nil, fmt.Errorf("failed to list stale prospects: %w", err)
	}

	return ids, nil
}

// UpdateScoringResults persists one chunk of scoring results atomically.
func (a *ProspectAdapter) UpdateScoringResults(ctx context.Context, updates []domain.ScoringResultUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE prospects
		SET fit_score = $2, fit_label = $3, fit_reason = $4, last_scored_ruleset_hash = $5, updated_at = NOW()
		WHERE id = $1`

	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, query,
			u.ProspectID, u.FitScore, int(u.FitLabel), u.FitReason, u.RulesetHash,
		); err != nil {
			return fmt.Errorf("failed to update scoring result for prospect %d: %w", u.ProspectID, err)
		}
	}

	return tx.Commit()
}
