package worker

import (
	"context"
	"fmt"

	"icp_server/core/domain"
	"icp_server/core/service/scoring"
	"icp_server/pkg/logger"
)

// ScoringProcessor executes scoring queue messages against the batch service.
type ScoringProcessor struct {
	batch     *scoring.BatchService
	campaigns domain.CampaignRepository
}

func NewScoringProcessor(batch *scoring.BatchService, campaigns domain.CampaignRepository) *ScoringProcessor {
	return &ScoringProcessor{
		batch:     batch,
		campaigns: campaigns,
	}
}

// ProcessRun claims and executes one persisted scoring job.
func (p *ScoringProcessor) ProcessRun(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[ScoringRunPayload](msg)
	if err != nil {
		return fmt.Errorf("invalid scoring run payload: %w", err)
	}
	if payload.JobID == 0 {
		return fmt.Errorf("scoring run payload missing job_id")
	}

	logger.Info("Running scoring job %d (campaign %d)", payload.JobID, payload.CampaignID)
	return p.batch.Run(ctx, payload.JobID)
}

// ProcessSweep re-scores stale prospects. A zero campaign ID sweeps every
// active campaign; a sweep enqueues nothing when no prospect is stale.
func (p *ScoringProcessor) ProcessSweep(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[ScoringSweepPayload](msg)
	if err != nil {
		return fmt.Errorf("invalid scoring sweep payload: %w", err)
	}

	if payload.CampaignID != 0 {
		return p.sweepCampaign(ctx, payload.CampaignID)
	}

	campaigns, err := p.campaigns.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active campaigns: %w", err)
	}

	var lastErr error
	for _, c := range campaigns {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.sweepCampaign(ctx, c.ID); err != nil {
			// Keep sweeping the remaining campaigns, surface the failure once.
			logger.Error("Sweep failed for campaign %d: %v", c.ID, err)
			lastErr = err
		}
	}
	return lastErr
}

func (p *ScoringProcessor) sweepCampaign(ctx context.Context, campaignID int64) error {
	jobID, stale, err := p.batch.EnqueueStale(ctx, campaignID, false)
	if err != nil {
		return err
	}
	if stale == 0 {
		logger.Debug("Campaign %d has no stale prospects", campaignID)
		return nil
	}
	logger.Info("Campaign %d: enqueued job %d for %d stale prospects", campaignID, jobID, stale)
	return nil
}
