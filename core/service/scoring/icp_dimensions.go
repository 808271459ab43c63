// Package scoring implements the ICP scoring engine and the batch
// classification job built on top of it.
package scoring

import (
	"icp_server/core/domain"
)

// dimensionKind distinguishes keyword-list dimensions from numeric ranges.
type dimensionKind int

const (
	kindKeyword dimensionKind = iota
	kindNumeric
)

// dimension describes one of the 13 scoring axes: its reason label, its kind,
// and accessors into the profile and ruleset. The descriptor table replaces
// the reflective attribute dispatch the product previously relied on; every
// axis is an explicit entry evaluated in slice order.
type dimension struct {
	label string
	kind  dimensionKind

	// hardNoMatch marks the two location dimensions, where a present field
	// that matches none of the configured include keywords draws the full
	// exclusion penalty instead of being left unscored.
	hardNoMatch bool

	// keyword dimensions
	values   func(p *domain.EnrichedProfile) []string
	included func(r *domain.Ruleset) []string
	excluded func(r *domain.Ruleset) []string

	// numeric dimensions
	number     func(p *domain.EnrichedProfile) *int
	rangeStart func(r *domain.Ruleset) *int
	rangeEnd   func(r *domain.Ruleset) *int
}

// single wraps a scalar text accessor; an empty string means absent.
func single(get func(p *domain.EnrichedProfile) string) func(p *domain.EnrichedProfile) []string {
	return func(p *domain.EnrichedProfile) []string {
		if v := get(p); v != "" {
			return []string{v}
		}
		return nil
	}
}

// dimensions is the fixed evaluation order. Reordering entries changes the
// reason-string layout, so the order is part of the engine's contract.
var dimensions = []dimension{
	{
		label:    "prospect title",
		kind:     kindKeyword,
		values:   single(func(p *domain.EnrichedProfile) string { return p.Title }),
		included: func(r *domain.Ruleset) []string { return r.IncludedIndividualTitleKeywords },
		excluded: func(r *domain.Ruleset) []string { return r.ExcludedIndividualTitleKeywords },
	},
	{
		// Seniority is inferred from the title text; there is no separate
		// seniority field in the source data.
		label:    "prospect seniority",
		kind:     kindKeyword,
		values:   single(func(p *domain.EnrichedProfile) string { return p.Title }),
		included: func(r *domain.Ruleset) []string { return r.IncludedIndividualSeniorityKeywords },
		excluded: func(r *domain.Ruleset) []string { return r.ExcludedIndividualSeniorityKeywords },
	},
	{
		label:    "prospect industry",
		kind:     kindKeyword,
		values:   single(func(p *domain.EnrichedProfile) string { return p.Industry }),
		included: func(r *domain.Ruleset) []string { return r.IncludedIndividualIndustryKeywords },
		excluded: func(r *domain.Ruleset) []string { return r.ExcludedIndividualIndustryKeywords },
	},
	{
		label:      "prospect years of experience",
		kind:       kindNumeric,
		number:     func(p *domain.EnrichedProfile) *int { return p.YearsOfExperience },
		rangeStart: func(r *domain.Ruleset) *int { return r.IndividualYearsOfExperienceStart },
		rangeEnd:   func(r *domain.Ruleset) *int { return r.IndividualYearsOfExperienceEnd },
	},
	{
		label:    "prospect skills",
		kind:     kindKeyword,
		values:   func(p *domain.EnrichedProfile) []string { return p.Skills },
		included: func(r *domain.Ruleset) []string { return r.IncludedIndividualSkillsKeywords },
		excluded: func(r *domain.Ruleset) []string { return r.ExcludedIndividualSkillsKeywords },
	},
	{
		label:       "prospect location",
		kind:        kindKeyword,
		hardNoMatch: true,
		values:      single(func(p *domain.EnrichedProfile) string { return p.Location }),
		included:    func(r *domain.Ruleset) []string { return r.IncludedIndividualLocationKeywords },
		excluded:    func(r *domain.Ruleset) []string { return r.ExcludedIndividualLocationKeywords },
	},
	{
		label:    "prospect education",
		kind:     kindKeyword,
		values:   func(p *domain.EnrichedProfile) []string { return p.Education },
		included: func(r *domain.Ruleset) []string { return r.IncludedIndividualEducationKeywords },
		excluded: func(r *domain.Ruleset) []string { return r.ExcludedIndividualEducationKeywords },
	},
	{
		label:    "prospect bio",
		kind:     kindKeyword,
		values:   single(func(p *domain.EnrichedProfile) string { return p.IndividualDump }),
		included: func(r *domain.Ruleset) []string { return r.IncludedIndividualGeneralizedKeywords },
		excluded: func(r *domain.Ruleset) []string { return r.ExcludedIndividualGeneralizedKeywords },
	},
	{
		label:    "company name",
		kind:     kindKeyword,
		values:   single(func(p *domain.EnrichedProfile) string { return p.CompanyName }),
		included: func(r *domain.Ruleset) []string { return r.IncludedCompanyNameKeywords },
		excluded: func(r *domain.Ruleset) []string { return r.ExcludedCompanyNameKeywords },
	},
	{
		label:       "company location",
		kind:        kindKeyword,
		hardNoMatch: true,
		values:      single(func(p *domain.EnrichedProfile) string { return p.CompanyLocation }),
		included:    func(r *domain.Ruleset) []string { return r.IncludedCompanyLocationKeywords },
		excluded:    func(r *domain.Ruleset) []string { return r.ExcludedCompanyLocationKeywords },
	},
	{
		label:      "company size",
		kind:       kindNumeric,
		number:     func(p *domain.EnrichedProfile) *int { return p.CompanyEmployeeCount },
		rangeStart: func(r *domain.Ruleset) *int { return r.CompanySizeStart },
		rangeEnd:   func(r *domain.Ruleset) *int { return r.CompanySizeEnd },
	},
	{
		// The upstream data carries no distinct company-industry field; this
		// dimension reads the individual's industry, matching observed
		// product behavior.
		label:    "company industry",
		kind:     kindKeyword,
		values:   single(func(p *domain.EnrichedProfile) string { return p.Industry }),
		included: func(r *domain.Ruleset) []string { return r.IncludedCompanyIndustryKeywords },
		excluded: func(r *domain.Ruleset) []string { return r.ExcludedCompanyIndustryKeywords },
	},
	{
		label:    "company description",
		kind:     kindKeyword,
		values:   single(func(p *domain.EnrichedProfile) string { return p.CompanyDump }),
		included: func(r *domain.Ruleset) []string { return r.IncludedCompanyGeneralizedKeywords },
		excluded: func(r *domain.Ruleset) []string { return r.ExcludedCompanyGeneralizedKeywords },
	},
}
