package ruleset

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"icp_server/core/domain"
)

// memRulesetRepo mirrors the persistence adapter's Mutate contract: create on
// first write, recompute the content hash after the mutation.
type memRulesetRepo struct {
	rulesets map[int64]*domain.Ruleset
}

func newMemRulesetRepo() *memRulesetRepo {
	return &memRulesetRepo{rulesets: make(map[int64]*domain.Ruleset)}
}

func (r *memRulesetRepo) GetByCampaign(_ context.Context, campaignID int64) (*domain.Ruleset, error) {
	rs, ok := r.rulesets[campaignID]
	if !ok {
		return nil, nil
	}
	cp := *rs
	return &cp, nil
}

func (r *memRulesetRepo) Mutate(_ context.Context, campaignID int64, fn func(*domain.Ruleset) error) (*domain.Ruleset, error) {
	rs, ok := r.rulesets[campaignID]
	if !ok {
		rs = &domain.Ruleset{ID: campaignID, CampaignID: campaignID}
		rs.ContentHash = rs.ComputeHash()
		r.rulesets[campaignID] = rs
	}
	if err := fn(rs); err != nil {
		return nil, err
	}
	rs.ContentHash = rs.ComputeHash()
	cp := *rs
	return &cp, nil
}

type memCampaignRepo struct {
	campaigns map[int64]*domain.Campaign
}

func (r *memCampaignRepo) GetByID(_ context.Context, id int64) (*domain.Campaign, error) {
	return r.campaigns[id], nil
}
func (r *memCampaignRepo) ListActive(context.Context) ([]*domain.Campaign, error) { return nil, nil }

func newTestService(repo domain.RulesetRepository) *Service {
	campaigns := &memCampaignRepo{campaigns: map[int64]*domain.Campaign{
		7: {ID: 7, Name: "Q3 Outbound", IsActive: true},
	}}
	return NewService(repo, campaigns, zerolog.Nop())
}

func listPtr(vals ...string) *[]string { return &vals }

func optInt(v int) domain.OptInt { return domain.OptInt{Valid: true, Value: &v} }

func optNull() domain.OptInt { return domain.OptInt{Valid: true, Value: nil} }

func TestUpsert_CreatesOnFirstWrite(t *testing.T) {
	svc := newTestService(newMemRulesetRepo())

	rs, err := svc.Upsert(context.Background(), 7, &domain.RulesetUpdate{
		IncludedIndividualTitleKeywords: listPtr("CTO", "VP"),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if len(rs.IncludedIndividualTitleKeywords) != 2 {
		t.Errorf("titles = %v", rs.IncludedIndividualTitleKeywords)
	}
	if rs.ContentHash == "" {
		t.Error("content hash not computed")
	}
}

func TestUpsert_PartialUpdatePreservesUntouchedFields(t *testing.T) {
	repo := newMemRulesetRepo()
	svc := newTestService(repo)

	if _, err := svc.Upsert(context.Background(), 7, &domain.RulesetUpdate{
		IncludedIndividualTitleKeywords:  listPtr("CTO"),
		IncludedIndividualSkillsKeywords: listPtr("Go"),
		CompanySizeStart:                 optInt(10),
		CompanySizeEnd:                   optInt(500),
	}); err != nil {
		t.Fatalf("first Upsert: %v", err)
	}

	rs, err := svc.Upsert(context.Background(), 7, &domain.RulesetUpdate{
		IncludedIndividualTitleKeywords: listPtr("CEO"),
		CompanySizeEnd:                  optNull(),
	})
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	if len(rs.IncludedIndividualTitleKeywords) != 1 || rs.IncludedIndividualTitleKeywords[0] != "CEO" {
		t.Errorf("titles = %v, want overwritten to [CEO]", rs.IncludedIndividualTitleKeywords)
	}
	if len(rs.IncludedIndividualSkillsKeywords) != 1 || rs.IncludedIndividualSkillsKeywords[0] != "Go" {
		t.Errorf("skills = %v, want preserved", rs.IncludedIndividualSkillsKeywords)
	}
	if rs.CompanySizeStart == nil || *rs.CompanySizeStart != 10 {
		t.Errorf("size start = %v, want preserved 10", rs.CompanySizeStart)
	}
	if rs.CompanySizeEnd != nil {
		t.Errorf("size end = %v, want cleared by explicit null", rs.CompanySizeEnd)
	}
}

func TestUpsert_HashTracksContent(t *testing.T) {
	svc := newTestService(newMemRulesetRepo())
	ctx := context.Background()

	first, _ := svc.Upsert(ctx, 7, &domain.RulesetUpdate{
		IncludedIndividualTitleKeywords: listPtr("CTO"),
	})

	// Writing identical content leaves the hash unchanged.
	same, _ := svc.Upsert(ctx, 7, &domain.RulesetUpdate{
		IncludedIndividualTitleKeywords: listPtr("CTO"),
	})
	if same.ContentHash != first.ContentHash {
		t.Error("identical content produced a different hash")
	}

	// Any dimension change moves the hash.
	changed, _ := svc.Upsert(ctx, 7, &domain.RulesetUpdate{
		ExcludedCompanyNameKeywords: listPtr("Staffing"),
	})
	if changed.ContentHash == first.ContentHash {
		t.Error("content change did not move the hash")
	}
}

func TestClear(t *testing.T) {
	svc := newTestService(newMemRulesetRepo())
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, 7, &domain.RulesetUpdate{
		IncludedIndividualTitleKeywords: listPtr("CTO"),
		CompanySizeStart:                optInt(10),
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rs, err := svc.Clear(ctx, 7)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if rs.CountActiveDimensions() != 0 {
		t.Errorf("active dimensions = %d after clear", rs.CountActiveDimensions())
	}

	// The row survives with the empty-content hash.
	got, err := svc.Get(ctx, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("ruleset row deleted by clear")
	}
	empty := &domain.Ruleset{}
	if got.ContentHash != empty.ComputeHash() {
		t.Errorf("hash = %q, want empty-content hash", got.ContentHash)
	}
}

func TestCountActiveDimensions_NoRuleset(t *testing.T) {
	svc := newTestService(newMemRulesetRepo())

	n, err := svc.CountActiveDimensions(context.Background(), 7)
	if err != nil {
		t.Fatalf("CountActiveDimensions: %v", err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestCampaignExists(t *testing.T) {
	svc := newTestService(newMemRulesetRepo())
	ctx := context.Background()

	ok, err := svc.CampaignExists(ctx, 7)
	if err != nil || !ok {
		t.Errorf("CampaignExists(7) = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = svc.CampaignExists(ctx, 999)
	if err != nil || ok {
		t.Errorf("CampaignExists(999) = (%v, %v), want (false, nil)", ok, err)
	}
}
