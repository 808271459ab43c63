package scoring

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"icp_server/core/domain"
	"icp_server/core/port/out"
	"icp_server/pkg/snowflake"
)

// notifyTimeout bounds fire-and-forget notification delivery.
const notifyTimeout = 10 * time.Second

// ProfileFetcher assembles scoring-ready profiles for a set of prospects.
// A nil prospectIDs means every prospect in the campaign.
type ProfileFetcher interface {
	Fetch(ctx context.Context, campaignID int64, prospectIDs []int64) (map[int64]*domain.EnrichedProfile, error)
}

// BatchConfig tunes the batch classification run.
type BatchConfig struct {
	Workers       int // concurrent scoring goroutines per run
	ChunkSize     int // prospects per result-write transaction
	SyncThreshold int // target counts at or below this run inline on enqueue
	MaxAttempts   int // attempt ceiling for new jobs
}

func (c BatchConfig) withDefaults() BatchConfig {
	if c.Workers <= 0 {
		c.Workers = 5
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 50
	}
	if c.SyncThreshold < 0 {
		c.SyncThreshold = 0
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	return c
}

// BatchService owns the scoring job lifecycle: enqueue, claim, run, retry.
type BatchService struct {
	jobs      domain.ScoringJobRepository
	prospects domain.ProspectRepository
	rulesets  domain.RulesetRepository
	profiles  ProfileFetcher
	producer  out.MessageProducer
	notifier  out.Notifier // may be nil
	cfg       BatchConfig
	log       zerolog.Logger
}

func NewBatchService(
	jobs domain.ScoringJobRepository,
	prospects domain.ProspectRepository,
	rulesets domain.RulesetRepository,
	profiles ProfileFetcher,
	producer out.MessageProducer,
	notifier out.Notifier,
	cfg BatchConfig,
	log zerolog.Logger,
) *BatchService {
	return &BatchService{
		jobs:      jobs,
		prospects: prospects,
		rulesets:  rulesets,
		profiles:  profiles,
		producer:  producer,
		notifier:  notifier,
		cfg:       cfg.withDefaults(),
		log:       log.With().Str("component", "scoring_batch").Logger(),
	}
}

// Enqueue registers a scoring run for a campaign. prospectIDs nil targets the
// whole campaign; jobID zero mints a fresh job, non-zero re-dispatches an
// existing one. Small targets run inline before returning; larger ones are
// published to the task queue. Returns the job ID and whether the run was
// executed synchronously.
func (s *BatchService) Enqueue(ctx context.Context, campaignID int64, prospectIDs []int64, jobID int64, manual bool) (int64, bool, error) {
	if jobID != 0 {
		existing, err := s.jobs.GetByID(ctx, jobID)
		if err != nil {
			return 0, false, err
		}
		if existing == nil {
			return 0, false, fmt.Errorf("scoring job %d not found", jobID)
		}
		if existing.Status == domain.JobStatusInProgress || existing.IsTerminal() {
			// Duplicate dispatch of a running or finished job is a no-op.
			return jobID, false, nil
		}
	} else {
		jobID = snowflake.ID()
		job := &domain.ScoringJob{
			ID:          jobID,
			CampaignID:  campaignID,
			ProspectIDs: prospectIDs,
			Status:      domain.JobStatusPending,
			MaxAttempts: s.cfg.MaxAttempts,
			Manual:      manual,
		}
		if err := s.jobs.Create(ctx, job); err != nil {
			return 0, false, err
		}
	}

	count := len(prospectIDs)
	if prospectIDs == nil {
		var err error
		count, err = s.prospects.CountByCampaign(ctx, campaignID)
		if err != nil {
			return 0, false, err
		}
	}

	if count <= s.cfg.SyncThreshold {
		if err := s.Run(ctx, jobID); err != nil {
			// The job row already records the failure; hand it to the queue so
			// the worker drives the remaining attempts.
			s.log.Warn().Err(err).Int64("job_id", jobID).Msg("inline scoring run failed, deferring to queue")
			if _, perr := s.producer.PublishScoringRun(ctx, jobID, campaignID); perr != nil {
				return jobID, true, perr
			}
		}
		return jobID, true, nil
	}

	if _, err := s.producer.PublishScoringRun(ctx, jobID, campaignID); err != nil {
		return 0, false, err
	}
	return jobID, false, nil
}

// Run claims and executes one scoring job. A nil return with an unclaimable
// job means the message should be acked; a non-nil return asks the caller to
// retry (the claim gate stops retries once attempts are exhausted).
func (s *BatchService) Run(ctx context.Context, jobID int64) error {
	job, err := s.jobs.Claim(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		s.log.Debug().Int64("job_id", jobID).Msg("scoring job not claimable, skipping")
		return nil
	}

	summary, runErr := s.execute(ctx, job)
	if runErr != nil {
		if merr := s.jobs.MarkFailed(ctx, jobID, runErr.Error()); merr != nil {
			s.log.Error().Err(merr).Int64("job_id", jobID).Msg("failed to record scoring job failure")
		}
		s.log.Error().Err(runErr).Int64("job_id", jobID).Int("attempt", job.Attempts).Msg("scoring run failed")
		if job.Attempts >= job.MaxAttempts {
			s.notifyFailed(job, runErr.Error())
			return nil // out of retries, let the message be acked
		}
		return runErr
	}

	if err := s.jobs.MarkCompleted(ctx, jobID); err != nil {
		return err
	}
	s.log.Info().
		Int64("job_id", jobID).
		Int64("campaign_id", job.CampaignID).
		Int("prospects", summary.ProspectCount).
		Msg("scoring run completed")
	s.notifyCompleted(job, summary)
	return nil
}

// execute performs the actual scoring work for a claimed job.
func (s *BatchService) execute(ctx context.Context, job *domain.ScoringJob) (*out.JobSummary, error) {
	ids := job.ProspectIDs
	if ids == nil {
		var err error
		ids, err = s.prospects.ListIDsByCampaign(ctx, job.CampaignID)
		if err != nil {
			return nil, fmt.Errorf("resolve campaign prospects: %w", err)
		}
		// Pin the resolved set so retries score the same prospects.
		if err := s.jobs.SetProspectIDs(ctx, job.ID, ids); err != nil {
			return nil, fmt.Errorf("persist prospect ids: %w", err)
		}
	}

	summary := &out.JobSummary{
		Job:            job,
		ProspectCount:  len(ids),
		LabelBreakdown: make(map[domain.FitLabel]int),
	}
	if len(ids) == 0 {
		return summary, nil
	}

	profiles, err := s.profiles.Fetch(ctx, job.CampaignID, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch profiles: %w", err)
	}

	ruleset, err := s.rulesets.GetByCampaign(ctx, job.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("load ruleset: %w", err)
	}
	if ruleset == nil {
		// No ruleset yet: everyone scores zero against the empty config.
		ruleset = &domain.Ruleset{CampaignID: job.CampaignID}
		ruleset.ContentHash = ruleset.ComputeHash()
	}
	activeDims := ruleset.CountActiveDimensions()

	type outcome struct {
		score  int
		reason string
	}
	outcomes := make([]outcome, len(ids))

	workers := s.cfg.Workers
	if workers > len(ids) {
		workers = len(ids)
	}
	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				p := profiles[ids[i]]
				if p == nil {
					p = &domain.EnrichedProfile{ProspectID: ids[i]}
				}
				score, reason := Score(p, ruleset, activeDims)
				outcomes[i] = outcome{score: score, reason: reason}
			}
		}()
	}
	for i := range ids {
		idx <- i
	}
	close(idx)
	wg.Wait()

	scores := make([]int, len(outcomes))
	for i, o := range outcomes {
		scores[i] = o.score
	}
	scale := NewLabelScale(scores)

	updates := make([]domain.ScoringResultUpdate, len(ids))
	for i, id := range ids {
		reason := outcomes[i].reason
		if reason == "" {
			reason = domain.FitReasonNone
		}
		label := scale.LabelFor(outcomes[i].score)
		updates[i] = domain.ScoringResultUpdate{
			ProspectID:  id,
			FitScore:    outcomes[i].score,
			FitLabel:    label,
			FitReason:   reason,
			RulesetHash: ruleset.ContentHash,
		}
		summary.LabelBreakdown[label]++
	}

	for start := 0; start < len(updates); start += s.cfg.ChunkSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := start + s.cfg.ChunkSize
		if end > len(updates) {
			end = len(updates)
		}
		if err := s.prospects.UpdateScoringResults(ctx, updates[start:end]); err != nil {
			return nil, fmt.Errorf("write scoring results [%d:%d]: %w", start, end, err)
		}
	}

	return summary, nil
}

// EnqueueStale scores only the prospects whose persisted ruleset hash differs
// from the campaign's current one. Returns the job ID, the stale count, and
// whether anything was enqueued at all.
func (s *BatchService) EnqueueStale(ctx context.Context, campaignID int64, manual bool) (int64, int, error) {
	ruleset, err := s.rulesets.GetByCampaign(ctx, campaignID)
	if err != nil {
		return 0, 0, err
	}
	currentHash := ""
	if ruleset != nil {
		currentHash = ruleset.ContentHash
	} else {
		empty := &domain.Ruleset{CampaignID: campaignID}
		currentHash = empty.ComputeHash()
	}

	staleIDs, err := s.prospects.ListStaleIDs(ctx, campaignID, currentHash)
	if err != nil {
		return 0, 0, err
	}
	if len(staleIDs) == 0 {
		return 0, 0, nil
	}

	jobID, _, err := s.Enqueue(ctx, campaignID, staleIDs, 0, manual)
	return jobID, len(staleIDs), err
}

// GetJob exposes job records to the API layer.
func (s *BatchService) GetJob(ctx context.Context, jobID int64) (*domain.ScoringJob, error) {
	return s.jobs.GetByID(ctx, jobID)
}

// ListJobs returns a campaign's recent jobs, newest first.
func (s *BatchService) ListJobs(ctx context.Context, campaignID int64, limit int) ([]*domain.ScoringJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.jobs.ListByCampaign(ctx, campaignID, limit)
}

func (s *BatchService) notifyCompleted(job *domain.ScoringJob, summary *out.JobSummary) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyJobCompleted(ctx, summary); err != nil {
			s.log.Warn().Err(err).Int64("job_id", job.ID).Msg("completion notification failed")
		}
	}()
}

func (s *BatchService) notifyFailed(job *domain.ScoringJob, errMsg string) {
	if s.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := s.notifier.NotifyJobFailed(ctx, job, errMsg); err != nil {
			s.log.Warn().Err(err).Int64("job_id", job.ID).Msg("failure notification failed")
		}
	}()
}
