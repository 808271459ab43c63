// Package profile flattens stored prospect rows and enrichment payloads into
// scoring-ready profiles.
package profile

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"icp_server/core/domain"
	"icp_server/core/port/out"
)

// countryNames expands the country codes the data provider emits. The full
// name is appended after the code so ruleset keywords match either form;
// unknown codes pass through unchanged.
var countryNames = map[string]string{
	"US": "United States",
	"GB": "United Kingdom",
	"CA": "Canada",
	"AU": "Australia",
	"DE": "Germany",
	"FR": "France",
	"NL": "Netherlands",
	"IN": "India",
}

// Enricher builds EnrichedProfiles by joining prospect rows with the latest
// enrichment payload per prospect. Missing payloads are tolerated: the
// profile falls back to the stored prospect fields alone.
type Enricher struct {
	prospects domain.ProspectRepository
	provider  out.EnrichmentProvider
	log       zerolog.Logger

	// now is injectable for deterministic years-of-experience tests.
	now func() time.Time
}

func NewEnricher(prospects domain.ProspectRepository, provider out.EnrichmentProvider, log zerolog.Logger) *Enricher {
	return &Enricher{
		prospects: prospects,
		provider:  provider,
		log:       log.With().Str("component", "profile_enricher").Logger(),
		now:       time.Now,
	}
}

// Fetch assembles profiles for the given prospects. prospectIDs nil means the
// whole campaign. The result map is keyed by prospect ID and contains one
// entry per prospect row found; IDs that match no row are silently dropped.
func (e *Enricher) Fetch(ctx context.Context, campaignID int64, prospectIDs []int64) (map[int64]*domain.EnrichedProfile, error) {
	var (
		rows []*domain.Prospect
		err  error
	)
	if prospectIDs == nil {
		rows, err = e.prospects.ListByCampaign(ctx, campaignID)
	} else {
		rows, err = e.prospects.ListByIDs(ctx, campaignID, prospectIDs)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return map[int64]*domain.EnrichedProfile{}, nil
	}

	ids := make([]int64, len(rows))
	for i, p := range rows {
		ids[i] = p.ID
	}
	payloads, err := e.provider.GetLatestPayloads(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := e.now()
	profiles := make(map[int64]*domain.EnrichedProfile, len(rows))
	missing := 0
	for _, p := range rows {
		payload := payloads[p.ID]
		if payload == nil {
			missing++
		}
		profiles[p.ID] = buildProfile(p, payload, now)
	}
	if missing > 0 {
		e.log.Debug().
			Int64("campaign_id", campaignID).
			Int("missing_payloads", missing).
			Int("total", len(rows)).
			Msg("some prospects have no enrichment payload")
	}
	return profiles, nil
}

// buildProfile flattens one prospect and its (possibly nil) payload.
func buildProfile(p *domain.Prospect, payload *out.EnrichmentPayload, now time.Time) *domain.EnrichedProfile {
	prof := &domain.EnrichedProfile{
		ProspectID:  p.ID,
		Title:       p.Title,
		Industry:    p.Industry,
		Bio:         p.Bio,
		CompanyName: p.CompanyName,
	}
	if p.Education1 != "" {
		prof.Education = append(prof.Education, p.Education1)
	}
	if p.Education2 != "" {
		prof.Education = append(prof.Education, p.Education2)
	}
	prof.CompanyEmployeeCount = parseRangeLow(p.EmployeeCountRange)

	if payload != nil {
		personal := payload.Personal
		if personal.Title != "" {
			prof.Title = personal.Title
		}
		if personal.Industry != "" {
			prof.Industry = personal.Industry
		}
		if personal.Summary != "" {
			prof.Bio = personal.Summary
		}
		prof.Location = formatLocation(personal.Location)
		prof.Skills = personal.Skills
		for _, pos := range personal.Positions {
			prof.Positions = append(prof.Positions, domain.PastPosition{
				Title:       pos.Title,
				Description: pos.Description,
				StartYear:   pos.StartYear,
				EndYear:     pos.EndYear,
			})
		}
		if len(personal.Education) > 0 {
			prof.Education = personal.Education
			if len(prof.Education) > 2 {
				prof.Education = prof.Education[:2]
			}
		}
		prof.YearsOfExperience = yearsOfExperience(prof.Positions, now)

		company := payload.Company
		if company.Name != "" {
			prof.CompanyName = company.Name
		}
		prof.CompanyLocation = formatLocation(company.Location)
		if company.StaffCount != nil {
			prof.CompanyEmployeeCount = company.StaffCount
		}
		prof.CompanyDescription = company.Description
	}

	prof.IndividualDump = individualDump(prof)
	prof.CompanyDump = prof.CompanyDescription
	return prof
}

// yearsOfExperience derives tenure from the earliest position, which sits
// last in the most-recent-first list. If that position lacks a start year the
// value stays unset rather than guessing from a later one.
func yearsOfExperience(positions []domain.PastPosition, now time.Time) *int {
	if len(positions) == 0 {
		return nil
	}
	earliest := positions[len(positions)-1]
	if earliest.StartYear <= 0 {
		return nil
	}
	years := now.Year() - earliest.StartYear
	if years < 0 {
		years = 0
	}
	return &years
}

// formatLocation renders "City, Region, Country" from whatever parts exist.
// The country code is kept and a known expansion is appended after it, so a
// keyword rule written against "US" or "United States" matches either way.
func formatLocation(loc *out.PayloadLocation) string {
	if loc == nil {
		return ""
	}
	var parts []string
	if loc.City != "" {
		parts = append(parts, loc.City)
	}
	if loc.Region != "" {
		parts = append(parts, loc.Region)
	}
	if loc.Country != "" {
		parts = append(parts, loc.Country)
		if name, ok := countryNames[strings.ToUpper(loc.Country)]; ok {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, ", ")
}

// individualDump concatenates the most recent position's title and
// description with the bio, for generalized keyword matching.
func individualDump(prof *domain.EnrichedProfile) string {
	var parts []string
	if len(prof.Positions) > 0 {
		latest := prof.Positions[0]
		if latest.Title != "" {
			parts = append(parts, latest.Title)
		}
		if latest.Description != "" {
			parts = append(parts, latest.Description)
		}
	}
	if prof.Bio != "" {
		parts = append(parts, prof.Bio)
	}
	return strings.Join(parts, " ")
}

// parseRangeLow extracts the lower bound from a textual employee-count range
// such as "51-200", "1000+", or "200". Returns nil when nothing numeric leads
// the string.
func parseRangeLow(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}
