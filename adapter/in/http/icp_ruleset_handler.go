package http

import (
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"icp_server/core/domain"
	"icp_server/core/service/ruleset"
	"icp_server/pkg/apperr"
	"icp_server/pkg/response"
)

// RulesetHandler exposes per-campaign ICP rule configuration.
type RulesetHandler struct {
	rulesets *ruleset.Service
}

func NewRulesetHandler(rulesets *ruleset.Service) *RulesetHandler {
	return &RulesetHandler{rulesets: rulesets}
}

func (h *RulesetHandler) Register(router fiber.Router) {
	router.Get("/campaigns/:campaignID/ruleset", h.Get)
	router.Put("/campaigns/:campaignID/ruleset", h.Upsert)
	router.Delete("/campaigns/:campaignID/ruleset", h.Clear)
}

// rulesetView decorates the stored ruleset with its derived dimension count.
type rulesetView struct {
	*domain.Ruleset
	ActiveDimensions int `json:"active_dimensions"`
}

func newRulesetView(r *domain.Ruleset) rulesetView {
	return rulesetView{Ruleset: r, ActiveDimensions: r.CountActiveDimensions()}
}

// Get returns the campaign's ruleset, 404 when never configured.
func (h *RulesetHandler) Get(c *fiber.Ctx) error {
	campaignID, err := CampaignIDParam(c)
	if err != nil {
		return err
	}

	rs, err := h.rulesets.Get(c.Context(), campaignID)
	if err != nil {
		return err
	}
	if rs == nil {
		return apperr.NotFound("ruleset")
	}
	return response.OK(c, newRulesetView(rs))
}

// Upsert applies a partial ruleset update. Absent fields keep their stored
// values; a field present as null clears a numeric bound.
func (h *RulesetHandler) Upsert(c *fiber.Ctx) error {
	campaignID, err := CampaignIDParam(c)
	if err != nil {
		return err
	}

	exists, err := h.rulesets.CampaignExists(c.Context(), campaignID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("campaign")
	}

	var update domain.RulesetUpdate
	// Decoded directly so the tri-state numeric fields see "absent vs null".
	if err := json.Unmarshal(c.Body(), &update); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	if err := validateRulesetUpdate(&update); err != nil {
		return err
	}

	rs, err := h.rulesets.Upsert(c.Context(), campaignID, &update)
	if err != nil {
		return err
	}
	return response.OK(c, newRulesetView(rs))
}

// Clear empties every dimension; the row survives with zero active dimensions.
func (h *RulesetHandler) Clear(c *fiber.Ctx) error {
	campaignID, err := CampaignIDParam(c)
	if err != nil {
		return err
	}

	exists, err := h.rulesets.CampaignExists(c.Context(), campaignID)
	if err != nil {
		return err
	}
	if !exists {
		return apperr.NotFound("campaign")
	}

	rs, err := h.rulesets.Clear(c.Context(), campaignID)
	if err != nil {
		return err
	}
	return response.OK(c, newRulesetView(rs))
}

// validateRulesetUpdate rejects inverted numeric ranges and negative bounds.
// Keyword lists are free-form; empty strings are dropped upstream by matching
// (an empty keyword never matches anything) so they are not rejected here.
func validateRulesetUpdate(u *domain.RulesetUpdate) error {
	checkBound := func(field string, o domain.OptInt) error {
		if o.Valid && o.Value != nil && *o.Value < 0 {
			return apperr.InvalidInput(field, "must not be negative")
		}
		return nil
	}
	if err := checkBound("individual_years_of_experience_start", u.IndividualYearsOfExperienceStart); err != nil {
		return err
	}
	if err := checkBound("individual_years_of_experience_end", u.IndividualYearsOfExperienceEnd); err != nil {
		return err
	}
	if err := checkBound("company_size_start", u.CompanySizeStart); err != nil {
		return err
	}
	if err := checkBound("company_size_end", u.CompanySizeEnd); err != nil {
		return err
	}

	bothSet := func(lo, hi domain.OptInt) bool {
		return lo.Valid && lo.Value != nil && hi.Valid && hi.Value != nil
	}
	if bothSet(u.IndividualYearsOfExperienceStart, u.IndividualYearsOfExperienceEnd) &&
		*u.IndividualYearsOfExperienceStart.Value > *u.IndividualYearsOfExperienceEnd.Value {
		return apperr.InvalidInput("individual_years_of_experience_start", "must not exceed the end bound")
	}
	if bothSet(u.CompanySizeStart, u.CompanySizeEnd) &&
		*u.CompanySizeStart.Value > *u.CompanySizeEnd.Value {
		return apperr.InvalidInput("company_size_start", "must not exceed the end bound")
	}
	return nil
}
