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

// ScoringJobAdapter implements domain.ScoringJobRepository.
type ScoringJobAdapter struct {
	db *sqlx.DB
}

// NewScoringJobAdapter creates a new ScoringJobAdapter.
func NewScoringJobAdapter(db *sqlx.DB) *ScoringJobAdapter {
	return &ScoringJobAdapter{db: db}
}

// scoringJobRow represents the database row. prospect_ids is a nullable
// bigint[]: NULL means the whole campaign, a value is the pinned target set.
type scoringJobRow struct {
	ID          int64          `db:"id"`
	CampaignID  int64          `db:"campaign_id"`
	ProspectIDs pq.Int64Array  `db:"prospect_ids"`
	Status      string         `db:"status"`
	Attempts    int            `db:"attempts"`
	MaxAttempts int            `db:"max_attempts"`
	LastError   sql.NullString `db:"last_error"`
	Manual      bool           `db:"manual"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	StartedAt   sql.NullTime   `db:"started_at"`
	CompletedAt sql.NullTime   `db:"completed_at"`
}

func (r *scoringJobRow) toEntity() *domain.ScoringJob {
	job := &domain.ScoringJob{
		ID:          r.ID,
		CampaignID:  r.CampaignID,
		ProspectIDs: r.ProspectIDs,
		Status:      domain.JobStatus(r.Status),
		Attempts:    r.Attempts,
		MaxAttempts: r.MaxAttempts,
		Manual:      r.Manual,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.LastError.Valid {
		job.LastError = &r.LastError.String
	}
	if r.StartedAt.Valid {
		job.StartedAt = &r.StartedAt.Time
	}
	if r.CompletedAt.Valid {
		job.CompletedAt = &r.CompletedAt.Time
	}
	return job
}

// Create inserts a new scoring job. The ID is assigned by the caller.
func (a *ScoringJobAdapter) Create(ctx context.Context, job *domain.ScoringJob) error {
	query := `
		INSERT INTO scoring_jobs (id, campaign_id, prospect_ids, status, attempts, max_attempts, manual)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := a.db.QueryRowContext(ctx, query,
		job.ID, job.CampaignID, pq.Int64Array(job.ProspectIDs),
		string(job.Status), job.Attempts, job.MaxAttempts, job.Manual,
	).Scan(&job.CreatedAt, &job.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("scoring job %d: %w", job.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create scoring job: %w", err)
	}

	return nil
}

// GetByID retrieves a scoring job by ID. Returns nil when not found.
func (a *ScoringJobAdapter) GetByID(ctx context.Context, id int64) (*domain.ScoringJob, error) {
	var row scoringJobRow
	query := `SELECT * FROM scoring_jobs WHERE id = $1`

	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scoring job: %w", err)
	}

	return row.toEntity(), nil
}

// ListByCampaign retrieves a campaign's recent jobs, newest first.
func (a *ScoringJobAdapter) ListByCampaign(ctx context.Context, campaignID int64, limit int) ([]*domain.ScoringJob, error) {
	var rows []scoringJobRow
	query := `SELECT * FROM scoring_jobs WHERE campaign_id = $1 ORDER BY id DESC LIMIT $2`

	if err := a.db.SelectContext(ctx, &rows, query, campaignID, limit); err != nil {
		return nil, fmt.Errorf("failed to list scoring jobs: %w", err)
	}

	jobs := make([]*domain.ScoringJob, len(rows))
	for i, row := range rows {
		jobs[i] = row.toEntity()
	}

	return jobs, nil
}

// Claim atomically transitions a claimable job to IN_PROGRESS and bumps its
// attempt counter. The WHERE clause is the whole concurrency story: only one
// of two racing workers gets a row back.
func (a *ScoringJobAdapter) Claim(ctx context.Context, id int64) (*domain.ScoringJob, error) {
	var row scoringJobRow
	query := `
		UPDATE scoring_jobs
		SET status = 'IN_PROGRESS', attempts = attempts + 1, started_at = NOW(), updated_at = NOW()
		WHERE id = $1
		  AND (status = 'PENDING' OR (status = 'FAILED' AND attempts < max_attempts))
		RETURNING *`

	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to claim scoring job: %w", err)
	}

	return row.toEntity(), nil
}

// SetProspectIDs pins the resolved target list onto the job record.
func (a *ScoringJobAdapter) SetProspectIDs(ctx context.Context, id int64, prospectIDs []int64) error {
	query := `UPDATE scoring_jobs SET prospect_ids = $2, updated_at = NOW() WHERE id = $1`

	if _, err := a.db.ExecContext(ctx, query, id, pq.Int64Array(prospectIDs)); err != nil {
		return fmt.Errorf("failed to set prospect ids: %w", err)
	}

	return nil
}

// MarkCompleted finalizes a successful run.
func (a *ScoringJobAdapter) MarkCompleted(ctx context.Context, id int64) error {
	query := `
		UPDATE scoring_jobs
		SET status = 'COMPLETED', last_error = NULL, completed_at = NOW(), updated_at = NOW()
		WHERE id = $1`

	result, err := a.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark scoring job completed: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("scoring job %d: %w", id, ErrNotFound)
	}

	return nil
}

// MarkFailed records a failed attempt with its error message.
func (a *ScoringJobAdapter) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	query := `
		UPDATE scoring_jobs
		SET status = 'FAILED', last_error = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := a.db.ExecContext(ctx, query, id, errMsg)
	if err != nil {
		return fmt.Errorf("failed to mark scoring job failed: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("scoring job %d: %w", id, ErrNotFound)
	}

	return nil
}
