package domain

import (
	"context"
	"time"
)

// Prospect represents a contact assigned to a campaign. Scoring-result fields
// live directly on the prospect row and are overwritten on every scoring run;
// a never-scored prospect has all four set to nil.
type Prospect struct {
	ID         int64 `json:"id"`
	CampaignID int64 `json:"campaign_id"`

	FullName    string `json:"full_name"`
	Title       string `json:"title"`
	Industry    string `json:"industry"`
	Bio         string `json:"bio"`
	LinkedInURL string `json:"linkedin_url"`

	CompanyName string `json:"company_name"`
	// EmployeeCountRange is the stored textual range, e.g. "51-200". Used as a
	// fallback when the enrichment payload carries no numeric staff count.
	EmployeeCountRange string `json:"employee_count_range"`

	Education1 string `json:"education_1"`
	Education2 string `json:"education_2"`

	// Scoring results
	FitScore              *int      `json:"fit_score"`
	FitLabel              *FitLabel `json:"fit_label"`
	FitReason             *string   `json:"fit_reason"`
	LastScoredRulesetHash *string   `json:"last_scored_ruleset_hash"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FitLabel is the 5-bucket ordinal fitness classification.
type FitLabel int

const (
	FitVeryLow FitLabel = iota
	FitLow
	FitNeutral
	FitHigh
	FitVeryHigh
)

func (l FitLabel) String() string {
	switch l {
	case FitVeryLow:
		return "very_low"
	case FitLow:
		return "low"
	case FitNeutral:
		return "neutral"
	case FitHigh:
		return "high"
	case FitVeryHigh:
		return "very_high"
	default:
		return "unknown"
	}
}

// FitReasonNone is persisted when scoring produced no matched dimensions.
// Downstream consumers require fit_reason to be non-empty after a run.
const FitReasonNone = "No ICP rules matched this prospect."

// ScoringResultUpdate is one prospect's scoring outcome, written in chunks by
// the batch job.
type ScoringResultUpdate struct {
	ProspectID  int64
	FitScore    int
	FitLabel    FitLabel
	FitReason   string
	RulesetHash string
}

// ProspectRepository interface for prospect operations.
type ProspectRepository interface {
	GetByID(ctx context.Context, id int64) (*Prospect, error)
	ListByCampaign(ctx context.Context, campaignID int64) ([]*Prospect, error)
	ListPageByCampaign(ctx context.Context, campaignID int64, limit, offset int) ([]*Prospect, error)
	ListByIDs(ctx context.Context, campaignID int64, ids []int64) ([]*Prospect, error)
	ListIDsByCampaign(ctx context.Context, campaignID int64) ([]int64, error)
	CountByCampaign(ctx context.Context, campaignID int64) (int, error)

	// ListStaleIDs returns prospects whose last-scored ruleset hash differs
	// from currentHash, including never-scored prospects (nil hash).
	ListStaleIDs(ctx context.Context, campaignID int64, currentHash string) ([]int64, error)

	// UpdateScoringResults persists one chunk of scoring results in a single
	// transaction. Either the whole chunk lands or none of it.
	UpdateScoringResults(ctx context.Context, updates []ScoringResultUpdate) error
}
