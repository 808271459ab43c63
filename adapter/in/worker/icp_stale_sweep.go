package worker

import (
	"context"
	"time"

	"icp_server/core/domain"
	"icp_server/core/port/out"
	"icp_server/pkg/logger"
)

// StaleSweepScheduler periodically publishes staleness sweeps so prospects
// whose persisted ruleset hash drifted from the campaign's current one get
// re-scored without anyone pressing the button.
type StaleSweepScheduler struct {
	campaigns     domain.CampaignRepository
	producer      out.MessageProducer
	sweepInterval time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewStaleSweepScheduler creates a new stale sweep scheduler.
func NewStaleSweepScheduler(
	campaigns domain.CampaignRepository,
	producer out.MessageProducer,
	interval time.Duration,
) *StaleSweepScheduler {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &StaleSweepScheduler{
		campaigns:     campaigns,
		producer:      producer,
		sweepInterval: interval,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// Start starts the sweep scheduler.
func (s *StaleSweepScheduler) Start() {
	logger.Info("[StaleSweepScheduler] Starting with interval %v", s.sweepInterval)
	go s.run()
}

// Stop stops the sweep scheduler.
func (s *StaleSweepScheduler) Stop() {
	logger.Info("[StaleSweepScheduler] Stopping...")
	s.cancel()
}

func (s *StaleSweepScheduler) run() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			logger.Info("[StaleSweepScheduler] Stopped")
			return
		case <-ticker.C:
			s.publishSweeps()
		}
	}
}

// publishSweeps enqueues one sweep message per active campaign. The sweep
// handler skips campaigns with nothing stale, so over-publishing is cheap.
func (s *StaleSweepScheduler) publishSweeps() {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	campaigns, err := s.campaigns.ListActive(ctx)
	if err != nil {
		logger.Error("[StaleSweepScheduler] Failed to list active campaigns: %v", err)
		return
	}
	if len(campaigns) == 0 {
		return
	}

	published := 0
	for _, c := range campaigns {
		if _, err := s.producer.PublishStaleSweep(ctx, c.ID); err != nil {
			logger.Error("[StaleSweepScheduler] Failed to publish sweep for campaign %d: %v", c.ID, err)
			continue
		}
		published++
	}
	logger.Debug("[StaleSweepScheduler] Published %d sweep jobs", published)
}

// SetSweepInterval sets the sweep interval (for testing).
func (s *StaleSweepScheduler) SetSweepInterval(interval time.Duration) {
	s.sweepInterval = interval
}
