// Package ruleset manages per-campaign ICP rule configuration.
package ruleset

import (
	"context"

	"github.com/rs/zerolog"

	"icp_server/core/domain"
)

// Service wraps ruleset persistence with the mutation semantics the API
// exposes: partial upsert, full clear, and the derived active-dimension count.
type Service struct {
	repo      domain.RulesetRepository
	campaigns domain.CampaignRepository
	log       zerolog.Logger
}

func NewService(repo domain.RulesetRepository, campaigns domain.CampaignRepository, log zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		campaigns: campaigns,
		log:       log.With().Str("component", "ruleset_service").Logger(),
	}
}

// Get returns the campaign's ruleset, or nil when it was never configured.
func (s *Service) Get(ctx context.Context, campaignID int64) (*domain.Ruleset, error) {
	return s.repo.GetByCampaign(ctx, campaignID)
}

// Upsert applies a partial update: fields absent from the request keep their
// stored values, present fields overwrite. The row is created on first write
// and the content hash is recomputed inside the same transaction.
func (s *Service) Upsert(ctx context.Context, campaignID int64, update *domain.RulesetUpdate) (*domain.Ruleset, error) {
	rs, err := s.repo.Mutate(ctx, campaignID, func(r *domain.Ruleset) error {
		r.Apply(update)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Int64("campaign_id", campaignID).
		Str("content_hash", rs.ContentHash).
		Int("active_dimensions", rs.CountActiveDimensions()).
		Msg("ruleset updated")
	return rs, nil
}

// Clear empties every dimension while keeping the row, so the campaign still
// has a ruleset with zero active dimensions and a fresh hash.
func (s *Service) Clear(ctx context.Context, campaignID int64) (*domain.Ruleset, error) {
	rs, err := s.repo.Mutate(ctx, campaignID, func(r *domain.Ruleset) error {
		r.Clear()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Int64("campaign_id", campaignID).Msg("ruleset cleared")
	return rs, nil
}

// CountActiveDimensions returns how many dimensions currently constrain the
// campaign. A missing ruleset counts as zero.
func (s *Service) CountActiveDimensions(ctx context.Context, campaignID int64) (int, error) {
	rs, err := s.repo.GetByCampaign(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	if rs == nil {
		return 0, nil
	}
	return rs.CountActiveDimensions(), nil
}

// CampaignExists reports whether a campaign row exists, for request
// validation at the API boundary.
func (s *Service) CampaignExists(ctx context.Context, campaignID int64) (bool, error) {
	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return false, err
	}
	return c != nil, nil
}
