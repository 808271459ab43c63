package http

import (
	"github.com/gofiber/fiber/v2"

	"icp_server/core/service/ruleset"
	"icp_server/core/service/scoring"
	"icp_server/pkg/apperr"
	"icp_server/pkg/ratelimit"
	"icp_server/pkg/response"
)

// ScoringHandler exposes scoring triggers and job inspection.
type ScoringHandler struct {
	batch    *scoring.BatchService
	rulesets *ruleset.Service
	limiter  ratelimit.Limiter // may be nil
}

func NewScoringHandler(batch *scoring.BatchService, rulesets *ruleset.Service, limiter ratelimit.Limiter) *ScoringHandler {
	return &ScoringHandler{
		batch:    batch,
		rulesets: rulesets,
		limiter:  limiter,
	}
}

func (h *ScoringHandler) Register(router fiber.Router) {
	router.Post("/campaigns/:campaignID/score", h.Trigger)
	router.Get("/campaigns/:campaignID/score/jobs", h.ListJobs)
	router.Get("/score/jobs/:jobID", h.GetJob)
}

type triggerRequest struct {
	// ProspectIDs limits the run to the listed prospects; omitted means the
	// whole campaign.
	ProspectIDs []int64 `json:"prospect_ids"`
	// StaleOnly re-scores only prospects whose stored ruleset hash drifted.
	StaleOnly bool `json:"stale_only"`
}

type triggerResponse struct {
	JobID      int64  `json:"job_id"`
	Sync       bool   `json:"sync"`
	StaleCount *int   `json:"stale_count,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Trigger starts a scoring run for a campaign. Small runs complete before the
// response; larger ones return 202 and proceed on the worker.
func (h *ScoringHandler) Trigger(c *fiber.Ctx) error {
	campaignID, err := CampaignIDParam(c)
	if err != nil {
		return err
	}

	if h.limiter != nil && !h.limiter.Allow(c.Context(), ratelimit.Key("score-trigger", campaignID)) {
		return apperr.RateLimited("scoring trigger limit reached for this campaign")
	}

	exists, err := h.rulesets.CampaignExists(c.Context(), campaignID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("campaign")
	}

	var req triggerRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperr.BadRequest("invalid request body")
		}
	}
	if req.StaleOnly && len(req.ProspectIDs) > 0 {
		return apperr.BadRequest("stale_only cannot be combined with prospect_ids")
	}
	for _, id := range req.ProspectIDs {
		if id <= 0 {
			return apperr.InvalidInput("prospect_ids", "entries must be positive integers")
		}
	}

	if req.StaleOnly {
		jobID, stale, err := h.batch.EnqueueStale(c.Context(), campaignID, true)
		if err != nil {
			return err
		}
		if stale == 0 {
			return response.OK(c, triggerResponse{
				StaleCount: &stale,
				Message:    "no stale prospects",
			})
		}
		return response.Accepted(c, triggerResponse{
			JobID:      jobID,
			StaleCount: &stale,
		})
	}

	jobID, sync, err := h.batch.Enqueue(c.Context(), campaignID, req.ProspectIDs, 0, true)
	if err != nil {
		return err
	}
	if sync {
		return response.OK(c, triggerResponse{JobID: jobID, Sync: true})
	}
	return response.Accepted(c, triggerResponse{JobID: jobID})
}

// GetJob returns one scoring job record.
func (h *ScoringHandler) GetJob(c *fiber.Ctx) error {
	jobID, err := JobIDParam(c)
	if err != nil {
		return err
	}

	job, err := h.batch.GetJob(c.Context(), jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return apperr.NotFound("scoring job")
	}
	return response.OK(c, job)
}

// ListJobs returns a campaign's recent scoring jobs, newest first.
func (h *ScoringHandler) ListJobs(c *fiber.Ctx) error {
	campaignID, err := CampaignIDParam(c)
	if err != nil {
		return err
	}

	limit := QueryLimit(c, 20, 100)
	jobs, err := h.batch.ListJobs(c.Context(), campaignID, limit)
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, jobs, &response.Meta{Total: len(jobs), PageSize: limit})
}
