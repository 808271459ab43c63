package domain

import (
	"context"
	"time"
)

// JobStatus is the lifecycle state of a scoring job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusInProgress JobStatus = "IN_PROGRESS"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
)

// ScoringJob is the audit and retry unit for one batch classification run.
// One row is created per enqueue invocation, manual or scheduled.
type ScoringJob struct {
	ID         int64 `json:"id"`
	CampaignID int64 `json:"campaign_id"`

	// ProspectIDs is the explicit target list; nil means every prospect
	// currently assigned to the campaign. Resolved and persisted on first run
	// so retries score the same set.
	ProspectIDs []int64 `json:"prospect_ids"`

	Status      JobStatus `json:"status"`
	Attempts    int       `json:"attempts"`
	MaxAttempts int       `json:"max_attempts"`
	LastError   *string   `json:"last_error,omitempty"`
	Manual      bool      `json:"manual"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CanRetry reports whether a failed job is still under its attempt ceiling.
func (j *ScoringJob) CanRetry() bool {
	return j.Status == JobStatusFailed && j.Attempts < j.MaxAttempts
}

// IsTerminal reports whether the job has reached a final state. COMPLETED is
// always terminal; FAILED is terminal once retries are exhausted.
func (j *ScoringJob) IsTerminal() bool {
	if j.Status == JobStatusCompleted {
		return true
	}
	return j.Status == JobStatusFailed && j.Attempts >= j.MaxAttempts
}

// ScoringJobRepository interface for scoring job operations.
type ScoringJobRepository interface {
	Create(ctx context.Context, job *ScoringJob) error
	GetByID(ctx context.Context, id int64) (*ScoringJob, error)
	ListByCampaign(ctx context.Context, campaignID int64, limit int) ([]*ScoringJob, error)

	// Claim atomically transitions a PENDING or retryable FAILED job to
	// IN_PROGRESS and increments its attempt counter. Returns nil when the
	// job is not claimable (already running, completed, or out of retries),
	// which makes duplicate dispatch a no-op.
	Claim(ctx context.Context, id int64) (*ScoringJob, error)

	// SetProspectIDs persists the resolved target list onto the job record.
	SetProspectIDs(ctx context.Context, id int64, prospectIDs []int64) error

	MarkCompleted(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, errMsg string) error
}
