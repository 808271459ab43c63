package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
)

// Ruleset is the per-campaign ICP configuration: 11 keyword dimensions with
// include/exclude lists plus 2 numeric ranges (individual years of experience,
// company size). At most one ruleset exists per campaign.
type Ruleset struct {
	ID         int64 `json:"id"`
	CampaignID int64 `json:"campaign_id"`

	IncludedIndividualTitleKeywords []string `json:"included_individual_title_keywords"`
	ExcludedIndividualTitleKeywords []string `json:"excluded_individual_title_keywords"`

	IncludedIndividualSeniorityKeywords []string `json:"included_individual_seniority_keywords"`
	ExcludedIndividualSeniorityKeywords []string `json:"excluded_individual_seniority_keywords"`

	IncludedIndividualIndustryKeywords []string `json:"included_individual_industry_keywords"`
	ExcludedIndividualIndustryKeywords []string `json:"excluded_individual_industry_keywords"`

	IndividualYearsOfExperienceStart *int `json:"individual_years_of_experience_start"`
	IndividualYearsOfExperienceEnd   *int `json:"individual_years_of_experience_end"`

	IncludedIndividualSkillsKeywords []string `json:"included_individual_skills_keywords"`
	ExcludedIndividualSkillsKeywords []string `json:"excluded_individual_skills_keywords"`

	IncludedIndividualLocationKeywords []string `json:"included_individual_locations_keywords"`
	ExcludedIndividualLocationKeywords []string `json:"excluded_individual_locations_keywords"`

	IncludedIndividualGeneralizedKeywords []string `json:"included_individual_generalized_keywords"`
	ExcludedIndividualGeneralizedKeywords []string `json:"excluded_individual_generalized_keywords"`

	IncludedIndividualEducationKeywords []string `json:"included_individual_education_keywords"`
	ExcludedIndividualEducationKeywords []string `json:"excluded_individual_education_keywords"`

	IncludedCompanyNameKeywords []string `json:"included_company_name_keywords"`
	ExcludedCompanyNameKeywords []string `json:"excluded_company_name_keywords"`

	IncludedCompanyLocationKeywords []string `json:"included_company_locations_keywords"`
	ExcludedCompanyLocationKeywords []string `json:"excluded_company_locations_keywords"`

	CompanySizeStart *int `json:"company_size_start"`
	CompanySizeEnd   *int `json:"company_size_end"`

	IncludedCompanyIndustryKeywords []string `json:"included_company_industries_keywords"`
	ExcludedCompanyIndustryKeywords []string `json:"excluded_company_industries_keywords"`

	IncludedCompanyGeneralizedKeywords []string `json:"included_company_generalized_keywords"`
	ExcludedCompanyGeneralizedKeywords []string `json:"excluded_company_generalized_keywords"`

	// ContentHash is the staleness marker: a deterministic hash over all
	// dimension values, recomputed at the end of every mutation. Stability
	// and sensitivity are what matters, not collision resistance.
	ContentHash string `json:"content_hash"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// rulesetHashInput fixes the serialization shape the content hash is computed
// over. Slices are normalized so nil and empty hash identically.
type rulesetHashInput struct {
	IndividualTitleIn        []string `json:"individual_title_in"`
	IndividualTitleEx        []string `json:"individual_title_ex"`
	IndividualSeniorityIn    []string `json:"individual_seniority_in"`
	IndividualSeniorityEx    []string `json:"individual_seniority_ex"`
	IndividualIndustryIn     []string `json:"individual_industry_in"`
	IndividualIndustryEx     []string `json:"individual_industry_ex"`
	IndividualYoEStart       *int     `json:"individual_yoe_start"`
	IndividualYoEEnd         *int     `json:"individual_yoe_end"`
	IndividualSkillsIn       []string `json:"individual_skills_in"`
	IndividualSkillsEx       []string `json:"individual_skills_ex"`
	IndividualLocationIn     []string `json:"individual_location_in"`
	IndividualLocationEx     []string `json:"individual_location_ex"`
	IndividualGeneralizedIn  []string `json:"individual_generalized_in"`
	IndividualGeneralizedEx  []string `json:"individual_generalized_ex"`
	IndividualEducationIn    []string `json:"individual_education_in"`
	IndividualEducationEx    []string `json:"individual_education_ex"`
	CompanyNameIn            []string `json:"company_name_in"`
	CompanyNameEx            []string `json:"company_name_ex"`
	CompanyLocationIn        []string `json:"company_location_in"`
	CompanyLocationEx        []string `json:"company_location_ex"`
	CompanySizeStart         *int     `json:"company_size_start"`
	CompanySizeEnd           *int     `json:"company_size_end"`
	CompanyIndustryIn        []string `json:"company_industry_in"`
	CompanyIndustryEx        []string `json:"company_industry_ex"`
	CompanyGeneralizedIn     []string `json:"company_generalized_in"`
	CompanyGeneralizedEx     []string `json:"company_generalized_ex"`
}

func norm(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ComputeHash returns the deterministic content hash over all dimension
// values. Field order in rulesetHashInput is fixed, so the JSON bytes are
// stable for equal contents.
func (r *Ruleset) ComputeHash() string {
	input := rulesetHashInput{
		IndividualTitleIn:       norm(r.IncludedIndividualTitleKeywords),
		IndividualTitleEx:       norm(r.ExcludedIndividualTitleKeywords),
		IndividualSeniorityIn:   norm(r.IncludedIndividualSeniorityKeywords),
		IndividualSeniorityEx:   norm(r.ExcludedIndividualSeniorityKeywords),
		IndividualIndustryIn:    norm(r.IncludedIndividualIndustryKeywords),
		IndividualIndustryEx:    norm(r.ExcludedIndividualIndustryKeywords),
		IndividualYoEStart:      r.IndividualYearsOfExperienceStart,
		IndividualYoEEnd:        r.IndividualYearsOfExperienceEnd,
		IndividualSkillsIn:      norm(r.IncludedIndividualSkillsKeywords),
		IndividualSkillsEx:      norm(r.ExcludedIndividualSkillsKeywords),
		IndividualLocationIn:    norm(r.IncludedIndividualLocationKeywords),
		IndividualLocationEx:    norm(r.ExcludedIndividualLocationKeywords),
		IndividualGeneralizedIn: norm(r.IncludedIndividualGeneralizedKeywords),
		IndividualGeneralizedEx: norm(r.ExcludedIndividualGeneralizedKeywords),
		IndividualEducationIn:   norm(r.IncludedIndividualEducationKeywords),
		IndividualEducationEx:   norm(r.ExcludedIndividualEducationKeywords),
		CompanyNameIn:           norm(r.IncludedCompanyNameKeywords),
		CompanyNameEx:           norm(r.ExcludedCompanyNameKeywords),
		CompanyLocationIn:       norm(r.IncludedCompanyLocationKeywords),
		CompanyLocationEx:       norm(r.ExcludedCompanyLocationKeywords),
		CompanySizeStart:        r.CompanySizeStart,
		CompanySizeEnd:          r.CompanySizeEnd,
		CompanyIndustryIn:       norm(r.IncludedCompanyIndustryKeywords),
		CompanyIndustryEx:       norm(r.ExcludedCompanyIndustryKeywords),
		CompanyGeneralizedIn:    norm(r.IncludedCompanyGeneralizedKeywords),
		CompanyGeneralizedEx:    norm(r.ExcludedCompanyGeneralizedKeywords),
	}

	data, err := json.Marshal(input)
	if err != nil {
		// Marshal of a plain struct cannot fail; keep the hash stable anyway.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CountActiveDimensions returns how many of the 13 dimensions impose at least
// one constraint. The result is the exclusion-penalty magnitude used by the
// scoring engine, so it is always recomputed from the current field values.
func (r *Ruleset) CountActiveDimensions() int {
	count := 0

	keywordDims := [][2][]string{
		{r.IncludedIndividualTitleKeywords, r.ExcludedIndividualTitleKeywords},
		{r.IncludedIndividualSeniorityKeywords, r.ExcludedIndividualSeniorityKeywords},
		{r.IncludedIndividualIndustryKeywords, r.ExcludedIndividualIndustryKeywords},
		{r.IncludedIndividualSkillsKeywords, r.ExcludedIndividualSkillsKeywords},
		{r.IncludedIndividualLocationKeywords, r.ExcludedIndividualLocationKeywords},
		{r.IncludedIndividualGeneralizedKeywords, r.ExcludedIndividualGeneralizedKeywords},
		{r.IncludedIndividualEducationKeywords, r.ExcludedIndividualEducationKeywords},
		{r.IncludedCompanyNameKeywords, r.ExcludedCompanyNameKeywords},
		{r.IncludedCompanyLocationKeywords, r.ExcludedCompanyLocationKeywords},
		{r.IncludedCompanyIndustryKeywords, r.ExcludedCompanyIndustryKeywords},
		{r.IncludedCompanyGeneralizedKeywords, r.ExcludedCompanyGeneralizedKeywords},
	}
	for _, dim := range keywordDims {
		if len(dim[0]) > 0 || len(dim[1]) > 0 {
			count++
		}
	}

	if r.IndividualYearsOfExperienceStart != nil || r.IndividualYearsOfExperienceEnd != nil {
		count++
	}
	if r.CompanySizeStart != nil || r.CompanySizeEnd != nil {
		count++
	}

	return count
}

// Clear resets every dimension to empty while preserving identity, so the
// ruleset still exists but imposes no constraints.
func (r *Ruleset) Clear() {
	r.IncludedIndividualTitleKeywords = nil
	r.ExcludedIndividualTitleKeywords = nil
	r.IncludedIndividualSeniorityKeywords = nil
	r.ExcludedIndividualSeniorityKeywords = nil
	r.IncludedIndividualIndustryKeywords = nil
	r.ExcludedIndividualIndustryKeywords = nil
	r.IndividualYearsOfExperienceStart = nil
	r.IndividualYearsOfExperienceEnd = nil
	r.IncludedIndividualSkillsKeywords = nil
	r.ExcludedIndividualSkillsKeywords = nil
	r.IncludedIndividualLocationKeywords = nil
	r.ExcludedIndividualLocationKeywords = nil
	r.IncludedIndividualGeneralizedKeywords = nil
	r.ExcludedIndividualGeneralizedKeywords = nil
	r.IncludedIndividualEducationKeywords = nil
	r.ExcludedIndividualEducationKeywords = nil
	r.IncludedCompanyNameKeywords = nil
	r.ExcludedCompanyNameKeywords = nil
	r.IncludedCompanyLocationKeywords = nil
	r.ExcludedCompanyLocationKeywords = nil
	r.CompanySizeStart = nil
	r.CompanySizeEnd = nil
	r.IncludedCompanyIndustryKeywords = nil
	r.ExcludedCompanyIndustryKeywords = nil
	r.IncludedCompanyGeneralizedKeywords = nil
	r.ExcludedCompanyGeneralizedKeywords = nil
}

// OptInt is a tri-state integer for partial updates: absent from the request,
// present-as-null (clears the bound), or present-with-value.
type OptInt struct {
	Valid bool
	Value *int
}

func (o *OptInt) UnmarshalJSON(b []byte) error {
	o.Valid = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	var v int
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// RulesetUpdate carries a partial ruleset mutation: nil fields are left
// untouched, non-nil fields overwrite the stored value.
type RulesetUpdate struct {
	IncludedIndividualTitleKeywords *[]string `json:"included_individual_title_keywords,omitempty"`
	ExcludedIndividualTitleKeywords *[]string `json:"excluded_individual_title_keywords,omitempty"`

	IncludedIndividualSeniorityKeywords *[]string `json:"included_individual_seniority_keywords,omitempty"`
	ExcludedIndividualSeniorityKeywords *[]string `json:"excluded_individual_seniority_keywords,omitempty"`

	IncludedIndividualIndustryKeywords *[]string `json:"included_individual_industry_keywords,omitempty"`
	ExcludedIndividualIndustryKeywords *[]string `json:"excluded_individual_industry_keywords,omitempty"`

	IndividualYearsOfExperienceStart OptInt `json:"individual_years_of_experience_start"`
	IndividualYearsOfExperienceEnd   OptInt `json:"individual_years_of_experience_end"`

	IncludedIndividualSkillsKeywords *[]string `json:"included_individual_skills_keywords,omitempty"`
	ExcludedIndividualSkillsKeywords *[]string `json:"excluded_individual_skills_keywords,omitempty"`

	IncludedIndividualLocationKeywords *[]string `json:"included_individual_locations_keywords,omitempty"`
	ExcludedIndividualLocationKeywords *[]string `json:"excluded_individual_locations_keywords,omitempty"`

	IncludedIndividualGeneralizedKeywords *[]string `json:"included_individual_generalized_keywords,omitempty"`
	ExcludedIndividualGeneralizedKeywords *[]string `json:"excluded_individual_generalized_keywords,omitempty"`

	IncludedIndividualEducationKeywords *[]string `json:"included_individual_education_keywords,omitempty"`
	ExcludedIndividualEducationKeywords *[]string `json:"excluded_individual_education_keywords,omitempty"`

	IncludedCompanyNameKeywords *[]string `json:"included_company_name_keywords,omitempty"`
	ExcludedCompanyNameKeywords *[]string `json:"excluded_company_name_keywords,omitempty"`

	IncludedCompanyLocationKeywords *[]string `json:"included_company_locations_keywords,omitempty"`
	ExcludedCompanyLocationKeywords *[]string `json:"excluded_company_locations_keywords,omitempty"`

	CompanySizeStart OptInt `json:"company_size_start"`
	CompanySizeEnd   OptInt `json:"company_size_end"`

	IncludedCompanyIndustryKeywords *[]string `json:"included_company_industries_keywords,omitempty"`
	ExcludedCompanyIndustryKeywords *[]string `json:"excluded_company_industries_keywords,omitempty"`

	IncludedCompanyGeneralizedKeywords *[]string `json:"included_company_generalized_keywords,omitempty"`
	ExcludedCompanyGeneralizedKeywords *[]string `json:"excluded_company_generalized_keywords,omitempty"`
}

// Apply overwrites the ruleset fields present in the update. The content hash
// is NOT recomputed here; that happens once at the end of the mutation
// transaction.
func (r *Ruleset) Apply(u *RulesetUpdate) {
	setList := func(dst *[]string, src *[]string) {
		if src != nil {
			*dst = *src
		}
	}

	setList(&r.IncludedIndividualTitleKeywords, u.IncludedIndividualTitleKeywords)
	setList(&r.ExcludedIndividualTitleKeywords, u.ExcludedIndividualTitleKeywords)
	setList(&r.IncludedIndividualSeniorityKeywords, u.IncludedIndividualSeniorityKeywords)
	setList(&r.ExcludedIndividualSeniorityKeywords, u.ExcludedIndividualSeniorityKeywords)
	setList(&r.IncludedIndividualIndustryKeywords, u.IncludedIndividualIndustryKeywords)
	setList(&r.ExcludedIndividualIndustryKeywords, u.ExcludedIndividualIndustryKeywords)
	setList(&r.IncludedIndividualSkillsKeywords, u.IncludedIndividualSkillsKeywords)
	setList(&r.ExcludedIndividualSkillsKeywords, u.ExcludedIndividualSkillsKeywords)
	setList(&r.IncludedIndividualLocationKeywords, u.IncludedIndividualLocationKeywords)
	setList(&r.ExcludedIndividualLocationKeywords, u.ExcludedIndividualLocationKeywords)
	setList(&r.IncludedIndividualGeneralizedKeywords, u.IncludedIndividualGeneralizedKeywords)
	setList(&r.ExcludedIndividualGeneralizedKeywords, u.ExcludedIndividualGeneralizedKeywords)
	setList(&r.IncludedIndividualEducationKeywords, u.IncludedIndividualEducationKeywords)
	setList(&r.ExcludedIndividualEducationKeywords, u.ExcludedIndividualEducationKeywords)
	setList(&r.IncludedCompanyNameKeywords, u.IncludedCompanyNameKeywords)
	setList(&r.ExcludedCompanyNameKeywords, u.ExcludedCompanyNameKeywords)
	setList(&r.IncludedCompanyLocationKeywords, u.IncludedCompanyLocationKeywords)
	setList(&r.ExcludedCompanyLocationKeywords, u.ExcludedCompanyLocationKeywords)
	setList(&r.IncludedCompanyIndustryKeywords, u.IncludedCompanyIndustryKeywords)
	setList(&r.ExcludedCompanyIndustryKeywords, u.ExcludedCompanyIndustryKeywords)
	setList(&r.IncludedCompanyGeneralizedKeywords, u.IncludedCompanyGeneralizedKeywords)
	setList(&r.ExcludedCompanyGeneralizedKeywords, u.ExcludedCompanyGeneralizedKeywords)

	if u.IndividualYearsOfExperienceStart.Valid {
		r.IndividualYearsOfExperienceStart = u.IndividualYearsOfExperienceStart.Value
	}
	if u.IndividualYearsOfExperienceEnd.Valid {
		r.IndividualYearsOfExperienceEnd = u.IndividualYearsOfExperienceEnd.Value
	}
	if u.CompanySizeStart.Valid {
		r.CompanySizeStart = u.CompanySizeStart.Value
	}
	if u.CompanySizeEnd.Valid {
		r.CompanySizeEnd = u.CompanySizeEnd.Value
	}
}

// RulesetRepository interface for ruleset operations.
type RulesetRepository interface {
	// GetByCampaign returns the campaign's ruleset, or nil when none exists.
	GetByCampaign(ctx context.Context, campaignID int64) (*Ruleset, error)

	// Mutate runs fn against the campaign's ruleset under a per-campaign
	// write lock, creating an empty ruleset row first if absent. The content
	// hash is recomputed after fn returns, inside the same transaction.
	Mutate(ctx context.Context, campaignID int64, fn func(*Ruleset) error) (*Ruleset, error)
}
