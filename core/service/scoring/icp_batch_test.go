package scoring

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"icp_server/core/domain"
	"icp_server/pkg/snowflake"
)

func TestMain(m *testing.M) {
	if err := snowflake.Init(1); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// --- fakes ---

type fakeJobRepo struct {
	mu   sync.Mutex
	jobs map[int64]*domain.ScoringJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[int64]*domain.ScoringJob)}
}

func (r *fakeJobRepo) Create(_ context.Context, job *domain.ScoringJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *fakeJobRepo) GetByID(_ context.Context, id int64) (*domain.ScoringJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (r *fakeJobRepo) ListByCampaign(_ context.Context, campaignID int64, _ int) ([]*domain.ScoringJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var res []*domain.ScoringJob
	for _, j := range r.jobs {
		if j.CampaignID == campaignID {
			cp := *j
			res = append(res, &cp)
		}
	}
	return res, nil
}

func (r *fakeJobRepo) Claim(_ context.Context, id int64) (*domain.ScoringJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, nil
	}
	claimable := j.Status == domain.JobStatusPending ||
		(j.Status == domain.JobStatusFailed && j.Attempts < j.MaxAttempts)
	if !claimable {
		return nil, nil
	}
	j.Status = domain.JobStatusInProgress
	j.Attempts++
	cp := *j
	return &cp, nil
}

func (r *fakeJobRepo) SetProspectIDs(_ context.Context, id int64, prospectIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].ProspectIDs = prospectIDs
	return nil
}

func (r *fakeJobRepo) MarkCompleted(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].Status = domain.JobStatusCompleted
	return nil
}

func (r *fakeJobRepo) MarkFailed(_ context.Context, id int64, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[id].Status = domain.JobStatusFailed
	r.jobs[id].LastError = &errMsg
	return nil
}

type fakeProspectRepo struct {
	mu       sync.Mutex
	ids      []int64
	stale    []int64
	writes   [][]domain.ScoringResultUpdate
	writeErr error
}

func (r *fakeProspectRepo) GetByID(context.Context, int64) (*domain.Prospect, error) {
	return nil, nil
}
func (r *fakeProspectRepo) ListByCampaign(context.Context, int64) ([]*domain.Prospect, error) {
	return nil, nil
}
func (r *fakeProspectRepo) ListPageByCampaign(context.Context, int64, int, int) ([]*domain.Prospect, error) {
	return nil, nil
}
func (r *fakeProspectRepo) ListByIDs(context.Context, int64, []int64) ([]*domain.Prospect, error) {
	return nil, nil
}
func (r *fakeProspectRepo) ListIDsByCampaign(context.Context, int64) ([]int64, error) {
	return r.ids, nil
}
func (r *fakeProspectRepo) CountByCampaign(context.Context, int64) (int, error) {
	return len(r.ids), nil
}
func (r *fakeProspectRepo) ListStaleIDs(context.Context, int64, string) ([]int64, error) {
	return r.stale, nil
}

func (r *fakeProspectRepo) UpdateScoringResults(_ context.Context, updates []domain.ScoringResultUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	chunk := make([]domain.ScoringResultUpdate, len(updates))
	copy(chunk, updates)
	r.writes = append(r.writes, chunk)
	return nil
}

func (r *fakeProspectRepo) allUpdates() map[int64]domain.ScoringResultUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make(map[int64]domain.ScoringResultUpdate)
	for _, chunk := range r.writes {
		for _, u := range chunk {
			res[u.ProspectID] = u
		}
	}
	return res
}

type fakeRulesetRepo struct {
	ruleset *domain.Ruleset
}

func (r *fakeRulesetRepo) GetByCampaign(context.Context, int64) (*domain.Ruleset, error) {
	return r.ruleset, nil
}
func (r *fakeRulesetRepo) Mutate(context.Context, int64, func(*domain.Ruleset) error) (*domain.Ruleset, error) {
	return r.ruleset, nil
}

type fakeFetcher struct {
	profiles map[int64]*domain.EnrichedProfile
	err      error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ int64, prospectIDs []int64) (map[int64]*domain.EnrichedProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	res := make(map[int64]*domain.EnrichedProfile)
	for _, id := range prospectIDs {
		if p, ok := f.profiles[id]; ok {
			res[id] = p
		}
	}
	return res, nil
}

type fakeProducer struct {
	mu        sync.Mutex
	published []int64
}

func (p *fakeProducer) PublishScoringRun(_ context.Context, jobID, _ int64) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, jobID)
	return "msg-1", nil
}

func (p *fakeProducer) PublishStaleSweep(_ context.Context, _ int64) (string, error) {
	return "msg-2", nil
}

func (p *fakeProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

// --- helpers ---

func testRuleset() *domain.Ruleset {
	r := &domain.Ruleset{
		CampaignID:                      7,
		IncludedIndividualTitleKeywords: []string{"Engineer"},
		ExcludedIndividualTitleKeywords: []string{"Recruiter"},
	}
	r.ContentHash = r.ComputeHash()
	return r
}

func newTestService(jobs *fakeJobRepo, prospects *fakeProspectRepo, rulesets *fakeRulesetRepo, fetcher *fakeFetcher, producer *fakeProducer, cfg BatchConfig) *BatchService {
	return NewBatchService(jobs, prospects, rulesets, fetcher, producer, nil, cfg, zerolog.Nop())
}

// --- tests ---

func TestBatchService_RunScoresAndPersists(t *testing.T) {
	jobs := newFakeJobRepo()
	prospects := &fakeProspectRepo{ids: []int64{1, 2, 3}}
	rulesets := &fakeRulesetRepo{ruleset: testRuleset()}
	fetcher := &fakeFetcher{profiles: map[int64]*domain.EnrichedProfile{
		1: {ProspectID: 1, Title: "Software Engineer"},
		2: {ProspectID: 2, Title: "Technical Recruiter"},
		3: {ProspectID: 3, Title: "Accountant"},
	}}

	jobs.Create(context.Background(), &domain.ScoringJob{
		ID: 100, CampaignID: 7, Status: domain.JobStatusPending, MaxAttempts: 3,
	})

	svc := newTestService(jobs, prospects, rulesets, fetcher, &fakeProducer{}, BatchConfig{ChunkSize: 2})
	if err := svc.Run(context.Background(), 100); err != nil {
		t.Fatalf("Run: %v", err)
	}

	job, _ := jobs.GetByID(context.Background(), 100)
	if job.Status != domain.JobStatusCompleted {
		t.Errorf("job status = %s, want COMPLETED", job.Status)
	}
	if len(job.ProspectIDs) != 3 {
		t.Errorf("resolved prospect IDs = %v, want 3 entries", job.ProspectIDs)
	}

	updates := prospects.allUpdates()
	if len(updates) != 3 {
		t.Fatalf("persisted %d updates, want 3", len(updates))
	}

	if updates[1].FitScore != 1 {
		t.Errorf("prospect 1 score = %d, want 1", updates[1].FitScore)
	}
	if updates[2].FitScore != -2 {
		t.Errorf("prospect 2 score = %d, want -2", updates[2].FitScore)
	}
	if updates[3].FitScore != 0 {
		t.Errorf("prospect 3 score = %d, want 0", updates[3].FitScore)
	}
	if updates[3].FitReason != domain.FitReasonNone {
		t.Errorf("prospect 3 reason = %q, want fallback", updates[3].FitReason)
	}
	for id, u := range updates {
		if u.RulesetHash != rulesets.ruleset.ContentHash {
			t.Errorf("prospect %d hash = %q, want current ruleset hash", id, u.RulesetHash)
		}
	}

	// ChunkSize 2 over 3 prospects means two write transactions.
	if len(prospects.writes) != 2 {
		t.Errorf("write chunks = %d, want 2", len(prospects.writes))
	}
}

func TestBatchService_RunUnclaimableIsNoOp(t *testing.T) {
	jobs := newFakeJobRepo()
	jobs.Create(context.Background(), &domain.ScoringJob{
		ID: 100, CampaignID: 7, Status: domain.JobStatusCompleted, MaxAttempts: 3,
	})
	prospects := &fakeProspectRepo{ids: []int64{1}}
	svc := newTestService(jobs, prospects, &fakeRulesetRepo{}, &fakeFetcher{}, &fakeProducer{}, BatchConfig{})

	if err := svc.Run(context.Background(), 100); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(prospects.writes) != 0 {
		t.Error("unclaimable job must not write results")
	}
}

func TestBatchService_RunFailureRetriesThenStops(t *testing.T) {
	jobs := newFakeJobRepo()
	jobs.Create(context.Background(), &domain.ScoringJob{
		ID: 100, CampaignID: 7, ProspectIDs: []int64{1}, Status: domain.JobStatusPending, MaxAttempts: 3,
	})
	fetcher := &fakeFetcher{err: errors.New("mongo down")}
	svc := newTestService(jobs, &fakeProspectRepo{}, &fakeRulesetRepo{}, fetcher, &fakeProducer{}, BatchConfig{})

	// First two attempts surface the error so the queue redelivers.
	for i := 0; i < 2; i++ {
		if err := svc.Run(context.Background(), 100); err == nil {
			t.Fatalf("attempt %d: want error", i+1)
		}
	}
	// Third attempt exhausts the ceiling and acks.
	if err := svc.Run(context.Background(), 100); err != nil {
		t.Fatalf("final attempt should return nil, got %v", err)
	}

	job, _ := jobs.GetByID(context.Background(), 100)
	if job.Status != domain.JobStatusFailed {
		t.Errorf("job status = %s, want FAILED", job.Status)
	}
	if job.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", job.Attempts)
	}
	if job.LastError == nil || *job.LastError == "" {
		t.Error("last error not recorded")
	}

	// A fourth dispatch must no longer claim.
	if err := svc.Run(context.Background(), 100); err != nil {
		t.Fatalf("post-exhaustion run: %v", err)
	}
	job, _ = jobs.GetByID(context.Background(), 100)
	if job.Attempts != 3 {
		t.Errorf("attempts grew past ceiling: %d", job.Attempts)
	}
}

func TestBatchService_EnqueueSmallRunsInline(t *testing.T) {
	jobs := newFakeJobRepo()
	prospects := &fakeProspectRepo{ids: []int64{1, 2}}
	rulesets := &fakeRulesetRepo{ruleset: testRuleset()}
	fetcher := &fakeFetcher{profiles: map[int64]*domain.EnrichedProfile{
		1: {ProspectID: 1, Title: "Engineer"},
		2: {ProspectID: 2, Title: "Designer"},
	}}
	producer := &fakeProducer{}
	svc := newTestService(jobs, prospects, rulesets, fetcher, producer, BatchConfig{SyncThreshold: 50})

	jobID, sync, err := svc.Enqueue(context.Background(), 7, nil, 0, true)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if !sync {
		t.Error("small batch should run synchronously")
	}
	if producer.count() != 0 {
		t.Error("inline run must not publish to the queue")
	}

	job, _ := jobs.GetByID(context.Background(), jobID)
	if job == nil || job.Status != domain.JobStatusCompleted {
		t.Fatalf("job = %+v, want COMPLETED", job)
	}
	if !job.Manual {
		t.Error("manual flag not persisted")
	}
	if len(prospects.allUpdates()) != 2 {
		t.Errorf("persisted %d updates, want 2", len(prospects.allUpdates()))
	}
}

func TestBatchService_EnqueueLargePublishes(t *testing.T) {
	jobs := newFakeJobRepo()
	ids := make([]int64, 80)
	for i := range ids {
		ids[i] = int64(i + 1)
	}
	prospects := &fakeProspectRepo{ids: ids}
	producer := &fakeProducer{}
	svc := newTestService(jobs, prospects, &fakeRulesetRepo{}, &fakeFetcher{}, producer, BatchConfig{SyncThreshold: 50})

	jobID, sync, err := svc.Enqueue(context.Background(), 7, nil, 0, false)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if sync {
		t.Error("large batch must go through the queue")
	}
	if producer.count() != 1 {
		t.Errorf("published %d messages, want 1", producer.count())
	}

	job, _ := jobs.GetByID(context.Background(), jobID)
	if job.Status != domain.JobStatusPending {
		t.Errorf("job status = %s, want PENDING before worker pickup", job.Status)
	}
}

func TestBatchService_EnqueueDuplicateJobIsNoOp(t *testing.T) {
	jobs := newFakeJobRepo()
	jobs.Create(context.Background(), &domain.ScoringJob{
		ID: 100, CampaignID: 7, Status: domain.JobStatusInProgress, MaxAttempts: 3,
	})
	producer := &fakeProducer{}
	svc := newTestService(jobs, &fakeProspectRepo{}, &fakeRulesetRepo{}, &fakeFetcher{}, producer, BatchConfig{})

	jobID, sync, err := svc.Enqueue(context.Background(), 7, nil, 100, false)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if jobID != 100 || sync {
		t.Errorf("got (%d, %v), want (100, false)", jobID, sync)
	}
	if producer.count() != 0 {
		t.Error("duplicate dispatch must not publish")
	}
}

func TestBatchService_LabelsAreBatchRelative(t *testing.T) {
	jobs := newFakeJobRepo()
	prospects := &fakeProspectRepo{ids: []int64{1, 2, 3}}
	ruleset := &domain.Ruleset{
		CampaignID:                      7,
		IncludedIndividualTitleKeywords: []string{"Engineer"},
		ExcludedIndividualTitleKeywords: []string{"Recruiter"},
		IncludedIndividualSkillsKeywords: []string{
			"Kubernetes",
		},
	}
	ruleset.ContentHash = ruleset.ComputeHash()
	fetcher := &fakeFetcher{profiles: map[int64]*domain.EnrichedProfile{
		1: {ProspectID: 1, Title: "Engineer", Skills: []string{"Kubernetes"}}, // +2
		2: {ProspectID: 2, Title: "Recruiter"},                               // -2
		3: {ProspectID: 3, Title: "Analyst"},                                 // 0
	}}

	jobs.Create(context.Background(), &domain.ScoringJob{
		ID: 100, CampaignID: 7, Status: domain.JobStatusPending, MaxAttempts: 3,
	})
	svc := newTestService(jobs, prospects, &fakeRulesetRepo{ruleset: ruleset}, fetcher, &fakeProducer{}, BatchConfig{})
	if err := svc.Run(context.Background(), 100); err != nil {
		t.Fatalf("Run: %v", err)
	}

	updates := prospects.allUpdates()
	if updates[1].FitLabel != domain.FitVeryHigh {
		t.Errorf("prospect 1 label = %s, want very_high", updates[1].FitLabel)
	}
	if updates[2].FitLabel != domain.FitVeryLow {
		t.Errorf("prospect 2 label = %s, want very_low", updates[2].FitLabel)
	}
	if updates[3].FitLabel != domain.FitNeutral {
		t.Errorf("prospect 3 label = %s, want neutral", updates[3].FitLabel)
	}
}

func TestBatchService_MissingProfileScoresAgainstEmpty(t *testing.T) {
	jobs := newFakeJobRepo()
	prospects := &fakeProspectRepo{}
	rulesets := &fakeRulesetRepo{ruleset: testRuleset()}
	// Fetcher returns nothing for prospect 9.
	fetcher := &fakeFetcher{profiles: map[int64]*domain.EnrichedProfile{}}

	jobs.Create(context.Background(), &domain.ScoringJob{
		ID: 100, CampaignID: 7, ProspectIDs: []int64{9}, Status: domain.JobStatusPending, MaxAttempts: 3,
	})
	svc := newTestService(jobs, prospects, rulesets, fetcher, &fakeProducer{}, BatchConfig{})
	if err := svc.Run(context.Background(), 100); err != nil {
		t.Fatalf("Run: %v", err)
	}

	updates := prospects.allUpdates()
	u, ok := updates[9]
	if !ok {
		t.Fatal("prospect 9 not persisted")
	}
	if u.FitScore != 0 || u.FitLabel != domain.FitNeutral || u.FitReason != domain.FitReasonNone {
		t.Errorf("got %+v, want neutral zero with fallback reason", u)
	}
}

func TestBatchService_EnqueueStale(t *testing.T) {
	jobs := newFakeJobRepo()
	rulesets := &fakeRulesetRepo{ruleset: testRuleset()}

	t.Run("nothing stale", func(t *testing.T) {
		prospects := &fakeProspectRepo{}
		svc := newTestService(jobs, prospects, rulesets, &fakeFetcher{}, &fakeProducer{}, BatchConfig{})
		jobID, n, err := svc.EnqueueStale(context.Background(), 7, false)
		if err != nil {
			t.Fatalf("EnqueueStale: %v", err)
		}
		if jobID != 0 || n != 0 {
			t.Errorf("got (%d, %d), want (0, 0)", jobID, n)
		}
	})

	t.Run("stale prospects enqueued", func(t *testing.T) {
		prospects := &fakeProspectRepo{stale: []int64{4, 5}}
		fetcher := &fakeFetcher{profiles: map[int64]*domain.EnrichedProfile{
			4: {ProspectID: 4, Title: "Engineer"},
			5: {ProspectID: 5},
		}}
		svc := newTestService(jobs, prospects, rulesets, fetcher, &fakeProducer{}, BatchConfig{SyncThreshold: 50})
		jobID, n, err := svc.EnqueueStale(context.Background(), 7, false)
		if err != nil {
			t.Fatalf("EnqueueStale: %v", err)
		}
		if n != 2 {
			t.Errorf("stale count = %d, want 2", n)
		}
		job, _ := jobs.GetByID(context.Background(), jobID)
		if job == nil || job.Status != domain.JobStatusCompleted {
			t.Fatalf("job = %+v, want COMPLETED", job)
		}
		if len(prospects.allUpdates()) != 2 {
			t.Errorf("persisted %d updates, want 2", len(prospects.allUpdates()))
		}
	})
}
