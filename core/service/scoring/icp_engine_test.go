package scoring

import (
	"strings"
	"testing"

	"icp_server/core/domain"
)

func intPtr(v int) *int { return &v }

func TestScore_InclusionBonus(t *testing.T) {
	profile := &domain.EnrichedProfile{
		ProspectID: 1,
		Title:      "Senior DevOps Engineer",
	}
	ruleset := &domain.Ruleset{
		IncludedIndividualTitleKeywords: []string{"DevOps"},
	}

	score, reason := Score(profile, ruleset, ruleset.CountActiveDimensions())

	if score != 1 {
		t.Errorf("score = %d, want 1", score)
	}
	if reason != "(✅ prospect title: DevOps)" {
		t.Errorf("reason = %q, want inclusion fragment", reason)
	}
}

func TestScore_ExclusionPenaltyEqualsActiveDimensions(t *testing.T) {
	profile := &domain.EnrichedProfile{
		ProspectID: 1,
		Title:      "Recruiter",
		Industry:   "Software",
	}
	// Three active dimensions: title, seniority, industry.
	ruleset := &domain.Ruleset{
		ExcludedIndividualTitleKeywords:     []string{"Recruiter"},
		IncludedIndividualSeniorityKeywords: []string{"VP"},
		IncludedIndividualIndustryKeywords:  []string{"Software"},
	}
	active := ruleset.CountActiveDimensions()
	if active != 3 {
		t.Fatalf("active dimensions = %d, want 3", active)
	}

	score, reason := Score(profile, ruleset, active)

	// -3 for the title exclusion, +1 for the industry match.
	if score != -2 {
		t.Errorf("score = %d, want -2", score)
	}
	if !strings.Contains(reason, "(❌ prospect title: Recruiter)") {
		t.Errorf("reason missing exclusion fragment: %q", reason)
	}
	if !strings.Contains(reason, "(✅ prospect industry: Software)") {
		t.Errorf("reason missing inclusion fragment: %q", reason)
	}
}

func TestScore_ExclusionWinsOverInclusion(t *testing.T) {
	profile := &domain.EnrichedProfile{Title: "Engineering Recruiter"}
	ruleset := &domain.Ruleset{
		IncludedIndividualTitleKeywords: []string{"Engineer"},
		ExcludedIndividualTitleKeywords: []string{"Recruiter"},
	}

	score, reason := Score(profile, ruleset, 1)

	if score != -1 {
		t.Errorf("score = %d, want -1", score)
	}
	if strings.Contains(reason, "✅") {
		t.Errorf("reason should carry no inclusion fragment: %q", reason)
	}
}

func TestScore_AbsentFieldContributesNothing(t *testing.T) {
	profile := &domain.EnrichedProfile{ProspectID: 1} // all fields empty
	ruleset := &domain.Ruleset{
		IncludedIndividualTitleKeywords:    []string{"Engineer"},
		ExcludedIndividualIndustryKeywords: []string{"Staffing"},
		CompanySizeStart:                   intPtr(10),
		CompanySizeEnd:                     intPtr(500),
	}

	score, reason := Score(profile, ruleset, ruleset.CountActiveDimensions())

	if score != 0 {
		t.Errorf("score = %d, want 0", score)
	}
	if reason != "" {
		t.Errorf("reason = %q, want empty", reason)
	}
}

func TestScore_LocationHardNoMatch(t *testing.T) {
	tests := []struct {
		name       string
		location   string
		included   []string
		wantScore  int
		wantReason string
	}{
		{
			name:       "present but unmatched draws full penalty",
			location:   "Berlin, Germany",
			included:   []string{"United States"},
			wantScore:  -1,
			wantReason: "(❌ prospect location: No Match)",
		},
		{
			name:       "present and matched earns bonus",
			location:   "Austin, Texas, United States",
			included:   []string{"United States"},
			wantScore:  1,
			wantReason: "(✅ prospect location: United States)",
		},
		{
			name:       "absent stays silent",
			location:   "",
			included:   []string{"United States"},
			wantScore:  0,
			wantReason: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &domain.EnrichedProfile{Location: tt.location}
			ruleset := &domain.Ruleset{IncludedIndividualLocationKeywords: tt.included}

			score, reason := Score(profile, ruleset, ruleset.CountActiveDimensions())

			if score != tt.wantScore {
				t.Errorf("score = %d, want %d", score, tt.wantScore)
			}
			if reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestScore_NonLocationNoMatchIsNeutral(t *testing.T) {
	// Unlike location, an unmatched title must not be penalized.
	profile := &domain.EnrichedProfile{Title: "Accountant"}
	ruleset := &domain.Ruleset{IncludedIndividualTitleKeywords: []string{"Engineer"}}

	score, reason := Score(profile, ruleset, 1)

	if score != 0 || reason != "" {
		t.Errorf("got (%d, %q), want (0, \"\")", score, reason)
	}
}

func TestScore_NumericRange(t *testing.T) {
	tests := []struct {
		name      string
		yoe       *int
		start     *int
		end       *int
		wantScore int
	}{
		{"within both bounds", intPtr(5), intPtr(3), intPtr(10), 1},
		{"at lower bound", intPtr(3), intPtr(3), intPtr(10), 1},
		{"at upper bound", intPtr(10), intPtr(3), intPtr(10), 1},
		{"below range", intPtr(2), intPtr(3), intPtr(10), -1},
		{"above range", intPtr(11), intPtr(3), intPtr(10), -1},
		{"half-open no bonus", intPtr(5), intPtr(3), nil, 0},
		{"half-open still disqualifies", intPtr(2), intPtr(3), nil, -1},
		{"unknown value", nil, intPtr(3), intPtr(10), 0},
		{"no bounds configured", intPtr(5), nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &domain.EnrichedProfile{YearsOfExperience: tt.yoe}
			ruleset := &domain.Ruleset{
				IndividualYearsOfExperienceStart: tt.start,
				IndividualYearsOfExperienceEnd:   tt.end,
			}

			score, _ := Score(profile, ruleset, ruleset.CountActiveDimensions())

			if score != tt.wantScore {
				t.Errorf("score = %d, want %d", score, tt.wantScore)
			}
		})
	}
}

func TestScore_CaseInsensitiveSubstring(t *testing.T) {
	profile := &domain.EnrichedProfile{Title: "HEAD OF PLATFORM ENGINEERING"}
	ruleset := &domain.Ruleset{IncludedIndividualTitleKeywords: []string{"engineering"}}

	score, reason := Score(profile, ruleset, 1)

	if score != 1 {
		t.Errorf("score = %d, want 1", score)
	}
	// The reason reports the configured keyword, not the matched text.
	if reason != "(✅ prospect title: engineering)" {
		t.Errorf("reason = %q", reason)
	}
}

func TestScore_SkillsMatchAnyElement(t *testing.T) {
	profile := &domain.EnrichedProfile{
		Skills: []string{"Python", "Kubernetes", "Terraform"},
	}
	ruleset := &domain.Ruleset{
		IncludedIndividualSkillsKeywords: []string{"Go", "Kubernetes"},
	}

	score, reason := Score(profile, ruleset, 1)

	if score != 1 {
		t.Errorf("score = %d, want 1", score)
	}
	if reason != "(✅ prospect skills: Kubernetes)" {
		t.Errorf("reason = %q", reason)
	}
}

func TestScore_CompanyIndustryReadsIndividualIndustry(t *testing.T) {
	profile := &domain.EnrichedProfile{Industry: "Financial Services"}
	ruleset := &domain.Ruleset{
		IncludedCompanyIndustryKeywords: []string{"Financial"},
	}

	score, reason := Score(profile, ruleset, 1)

	if score != 1 {
		t.Errorf("score = %d, want 1", score)
	}
	if reason != "(✅ company industry: Financial)" {
		t.Errorf("reason = %q", reason)
	}
}

func TestScore_ReasonFollowsDimensionOrder(t *testing.T) {
	profile := &domain.EnrichedProfile{
		Title:           "VP of Engineering",
		Industry:        "SaaS",
		CompanyName:     "Acme Robotics",
		CompanyLocation: "Denver, Colorado, United States",
	}
	ruleset := &domain.Ruleset{
		IncludedIndividualTitleKeywords:    []string{"VP"},
		IncludedIndividualIndustryKeywords: []string{"SaaS"},
		IncludedCompanyNameKeywords:        []string{"Acme"},
		IncludedCompanyLocationKeywords:    []string{"Colorado"},
	}

	_, reason := Score(profile, ruleset, ruleset.CountActiveDimensions())

	want := "(✅ prospect title: VP) (✅ prospect industry: SaaS) (✅ company name: Acme) (✅ company location: Colorado)"
	if reason != want {
		t.Errorf("reason = %q\nwant     %q", reason, want)
	}
}

func TestScore_EmptyRuleset(t *testing.T) {
	profile := &domain.EnrichedProfile{
		Title:    "CTO",
		Industry: "Biotech",
		Skills:   []string{"Leadership"},
	}
	ruleset := &domain.Ruleset{}

	score, reason := Score(profile, ruleset, 0)

	if score != 0 || reason != "" {
		t.Errorf("got (%d, %q), want (0, \"\")", score, reason)
	}
}

func TestScore_SingleExclusionOutweighsAllInclusions(t *testing.T) {
	// With N active dimensions, one exclusion hit plus N-1 inclusion bonuses
	// must still land below zero.
	profile := &domain.EnrichedProfile{
		Title:       "Staffing Manager",
		Industry:    "Software",
		CompanyName: "Acme",
		Location:    "Remote, United States",
	}
	ruleset := &domain.Ruleset{
		ExcludedIndividualTitleKeywords:    []string{"Staffing"},
		IncludedIndividualIndustryKeywords: []string{"Software"},
		IncludedCompanyNameKeywords:        []string{"Acme"},
		IncludedIndividualLocationKeywords: []string{"United States"},
	}
	active := ruleset.CountActiveDimensions()

	score, _ := Score(profile, ruleset, active)

	if score >= 0 {
		t.Errorf("score = %d, want negative", score)
	}
	if score != -active+3 {
		t.Errorf("score = %d, want %d", score, -active+3)
	}
}
