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

// RulesetAdapter implements domain.RulesetRepository.
type RulesetAdapter struct {
	db *sqlx.DB
}

// NewRulesetAdapter creates a new RulesetAdapter.
func NewRulesetAdapter(db *sqlx.DB) *RulesetAdapter {
	return &RulesetAdapter{db: db}
}

// rulesetRow represents the database row. Keyword lists are text[] columns.
type rulesetRow struct {
	ID         int64 `db:"id"`
	CampaignID int64 `db:"campaign_id"`

	InIndividualTitle     pq.StringArray `db:"included_individual_title_keywords"`
	ExIndividualTitle     pq.StringArray `db:"excluded_individual_title_keywords"`
	InIndividualSeniority pq.StringArray `db:"included_individual_seniority_keywords"`
	ExIndividualSeniority pq.StringArray `db:"excluded_individual_seniority_keywords"`
	InIndividualIndustry  pq.StringArray `db:"included_individual_industry_keywords"`
	ExIndividualIndustry  pq.StringArray `db:"excluded_individual_industry_keywords"`

	YoEStart sql.NullInt32 `db:"individual_years_of_experience_start"`
	YoEEnd   sql.NullInt32 `db:"individual_years_of_experience_end"`

	InIndividualSkills      pq.StringArray `db:"included_individual_skills_keywords"`
	ExIndividualSkills      pq.StringArray `db:"excluded_individual_skills_keywords"`
	InIndividualLocation    pq.StringArray `db:"included_individual_locations_keywords"`
	ExIndividualLocation    pq.StringArray `db:"excluded_individual_locations_keywords"`
	InIndividualGeneralized pq.StringArray `db:"included_individual_generalized_keywords"`
	ExIndividualGeneralized pq.StringArray `db:"excluded_individual_generalized_keywords"`
	InIndividualEducation   pq.StringArray `db:"included_individual_education_keywords"`
	ExIndividualEducation   pq.StringArray `db:"excluded_individual_education_keywords"`

	InCompanyName     pq.StringArray `db:"included_company_name_keywords"`
	ExCompanyName     pq.StringArray `db:"excluded_company_name_keywords"`
	InCompanyLocation pq.StringArray `db:"included_company_locations_keywords"`
	ExCompanyLocation pq.StringArray `db:"excluded_company_locations_keywords"`

	CompanySizeStart sql.NullInt32 `db:"company_size_start"`
	CompanySizeEnd   sql.NullInt32 `db:"company_size_end"`

	InCompanyIndustry    pq.StringArray `db:"included_company_industries_keywords"`
	ExCompanyIndustry    pq.StringArray `db:"excluded_company_industries_keywords"`
	InCompanyGeneralized pq.StringArray `db:"included_company_generalized_keywords"`
	ExCompanyGeneralized pq.StringArray `db:"excluded_company_generalized_keywords"`

	ContentHash string    `db:"content_hash"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func nullToPtr(n sql.NullInt32) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}

func ptrToNull(p *int) sql.NullInt32 {
	if p == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*p), Valid: true}
}

func (r *rulesetRow) toEntity() *domain.Ruleset {
	return &domain.Ruleset{
		ID:         r.ID,
		CampaignID: r.CampaignID,

		IncludedIndividualTitleKeywords:     r.InIndividualTitle,
		ExcludedIndividualTitleKeywords:     r.ExIndividualTitle,
		IncludedIndividualSeniorityKeywords: r.InIndividualSeniority,
		ExcludedIndividualSeniorityKeywords: r.ExIndividualSeniority,
		IncludedIndividualIndustryKeywords:  r.InIndividualIndustry,
		ExcludedIndividualIndustryKeywords:  r.ExIndividualIndustry,

		IndividualYearsOfExperienceStart: nullToPtr(r.YoEStart),
		IndividualYearsOfExperienceEnd:   nullToPtr(r.YoEEnd),

		IncludedIndividualSkillsKeywords:      r.InIndividualSkills,
		ExcludedIndividualSkillsKeywords:      r.ExIndividualSkills,
		IncludedIndividualLocationKeywords:    r.InIndividualLocation,
		ExcludedIndividualLocationKeywords:    r.ExIndividualLocation,
		IncludedIndividualGeneralizedKeywords: r.InIndividualGeneralized,
		ExcludedIndividualGeneralizedKeywords: r.ExIndividualGeneralized,
		IncludedIndividualEducationKeywords:   r.InIndividualEducation,
		ExcludedIndividualEducationKeywords:   r.ExIndividualEducation,

		IncludedCompanyNameKeywords:     r.InCompanyName,
		ExcludedCompanyNameKeywords:     r.ExCompanyName,
		IncludedCompanyLocationKeywords: r.InCompanyLocation,
		ExcludedCompanyLocationKeywords: r.ExCompanyLocation,

		CompanySizeStart: nullToPtr(r.CompanySizeStart),
		CompanySizeEnd:   nullToPtr(r.CompanySizeEnd),

		IncludedCompanyIndustryKeywords:    r.InCompanyIndustry,
		ExcludedCompanyIndustryKeywords:    r.ExCompanyIndustry,
		IncludedCompanyGeneralizedKeywords: r.InCompanyGeneralized,
		ExcludedCompanyGeneralizedKeywords: r.ExCompanyGeneralized,

		ContentHash: r.ContentHash,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// GetByCampaign retrieves the campaign's ruleset. Returns nil when the
// campaign was never configured.
func (a *RulesetAdapter) GetByCampaign(ctx context.Context, campaignID int64) (*domain.Ruleset, error) {
	var row rulesetRow
	query := `SELECT * FROM icp_rulesets WHERE campaign_id = $1`

	if err := a.db.GetContext(ctx, &row, query, campaignID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ruleset: %w", err)
	}

	return row.toEntity(), nil
}

// Mutate runs fn against the campaign's ruleset under FOR UPDATE, creating an
// empty row first when absent, and recomputes the content hash before commit.
// Concurrent mutations of the same campaign serialize on the row lock.
func (a *RulesetAdapter) Mutate(ctx context.Context, campaignID int64, fn func(*domain.Ruleset) error) (*domain.Ruleset, error) {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var row rulesetRow
	selectQuery := `SELECT * FROM icp_rulesets WHERE campaign_id = $1 FOR UPDATE`

	err = tx.GetContext(ctx, &row, selectQuery, campaignID)
	if err == sql.ErrNoRows {
		empty := &domain.Ruleset{CampaignID: campaignID}
		insertQuery := `
			INSERT INTO icp_rulesets (campaign_id, content_hash)
			VALUES ($1, $2)
			RETURNING *`
		if err := tx.GetContext(ctx, &row, insertQuery, campaignID, empty.ComputeHash()); err != nil {
			return nil, fmt.Errorf("failed to create ruleset: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to lock ruleset: %w", err)
	}

	ruleset := row.toEntity()
	if err := fn(ruleset); err != nil {
		return nil, err
	}
	ruleset.ContentHash = ruleset.ComputeHash()

	updateQuery := `
		UPDATE icp_rulesets
		SET included_individual_title_keywords = $2,
		    excluded_individual_title_keywords = $3,
		    included_individual_seniority_keywords = $4,
		    excluded_individual_seniority_keywords = $5,
		    included_individual_industry_keywords = $6,
		    excluded_individual_industry_keywords = $7,
		    individual_years_of_experience_start = $8,
		    individual_years_of_experience_end = $9,
		    included_individual_skills_keywords = $10,
		    excluded_individual_skills_keywords = $11,
		    included_individual_locations_keywords = $12,
		    excluded_individual_locations_keywords = $13,
		    included_individual_generalized_keywords = $14,
		    excluded_individual_generalized_keywords = $15,
		    included_individual_education_keywords = $16,
		    excluded_individual_education_keywords = $17,
		    included_company_name_keywords = $18,
		    excluded_company_name_keywords = $19,
		    included_company_locations_keywords = $20,
		    excluded_company_locations_keywords = $21,
		    company_size_start = $22,
		    company_size_end = $23,
		    included_company_industries_keywords = $24,
		    excluded_company_industries_keywords = $25,
		    included_company_generalized_keywords = $26,
		    excluded_company_generalized_keywords = $27,
		    content_hash = $28,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	if err := tx.QueryRowContext(ctx, updateQuery,
		ruleset.ID,
		pq.Array(ruleset.IncludedIndividualTitleKeywords),
		pq.Array(ruleset.ExcludedIndividualTitleKeywords),
		pq.Array(ruleset.IncludedIndividualSeniorityKeywords),
		pq.Array(ruleset.ExcludedIndividualSeniorityKeywords),
		pq.Array(ruleset.IncludedIndividualIndustryKeywords),
		pq.Array(ruleset.ExcludedIndividualIndustryKeywords),
		ptrToNull(ruleset.IndividualYearsOfExperienceStart),
		ptrToNull(ruleset.IndividualYearsOfExperienceEnd),
		pq.Array(ruleset.IncludedIndividualSkillsKeywords),
		pq.Array(ruleset.ExcludedIndividualSkillsKeywords),
		pq.Array(ruleset.IncludedIndividualLocationKeywords),
		pq.Array(ruleset.ExcludedIndividualLocationKeywords),
		pq.Array(ruleset.IncludedIndividualGeneralizedKeywords),
		pq.Array(ruleset.ExcludedIndividualGeneralizedKeywords),
		pq.Array(ruleset.IncludedIndividualEducationKeywords),
		pq.Array(ruleset.ExcludedIndividualEducationKeywords),
		pq.Array(ruleset.IncludedCompanyNameKeywords),
		pq.Array(ruleset.ExcludedCompanyNameKeywords),
		pq.Array(ruleset.IncludedCompanyLocationKeywords),
		pq.Array(ruleset.ExcludedCompanyLocationKeywords),
		ptrToNull(ruleset.CompanySizeStart),
		ptrToNull(ruleset.CompanySizeEnd),
		pq.Array(ruleset.IncludedCompanyIndustryKeywords),
		pq.Array(ruleset.ExcludedCompanyIndustryKeywords),
		pq.Array(ruleset.IncludedCompanyGeneralizedKeywords),
		pq.Array(ruleset.ExcludedCompanyGeneralizedKeywords),
		ruleset.ContentHash,
	).Scan(&ruleset.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update ruleset: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ruleset mutation: %w", err)
	}

	return ruleset, nil
}
