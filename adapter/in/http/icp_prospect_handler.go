package http

import (
	"github.com/gofiber/fiber/v2"

	"icp_server/core/domain"
	"icp_server/core/service/ruleset"
	"icp_server/pkg/apperr"
	"icp_server/pkg/response"
)

// ProspectHandler exposes read-only prospect fit results for reporting.
type ProspectHandler struct {
	prospects domain.ProspectRepository
	rulesets  *ruleset.Service
}

func NewProspectHandler(prospects domain.ProspectRepository, rulesets *ruleset.Service) *ProspectHandler {
	return &ProspectHandler{
		prospects: prospects,
		rulesets:  rulesets,
	}
}

func (h *ProspectHandler) Register(router fiber.Router) {
	router.Get("/campaigns/:campaignID/prospects", h.List)
}

// prospectView flattens a prospect to what the reporting UI reads: identity
// fields plus the four scoring-result columns. fit_label_name carries the
// human-readable bucket so clients never hardcode the ordinal mapping.
type prospectView struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	LinkedInURL string `json:"linkedin_url"`

	FitScore     *int             `json:"fit_score"`
	FitLabel     *domain.FitLabel `json:"fit_label"`
	FitLabelName string           `json:"fit_label_name,omitempty"`
	FitReason    *string          `json:"fit_reason"`
}

func toProspectView(p *domain.Prospect) prospectView {
	v := prospectView{
		ID:          p.ID,
		FullName:    p.FullName,
		Title:       p.Title,
		CompanyName: p.CompanyName,
		LinkedInURL: p.LinkedInURL,
		FitScore:    p.FitScore,
		FitLabel:    p.FitLabel,
		FitReason:   p.FitReason,
	}
	if p.FitLabel != nil {
		v.FitLabelName = p.FitLabel.String()
	}
	return v
}

// List returns one page of a campaign's prospects with their fit results.
func (h *ProspectHandler) List(c *fiber.Ctx) error {
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

	limit := QueryLimit(c, 50, 200)
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	prospects, err := h.prospects.ListPageByCampaign(c.Context(), campaignID, limit, offset)
	if err != nil {
		return err
	}

	total, err := h.prospects.CountByCampaign(c.Context(), campaignID)
	if err != nil {
		return err
	}

	views := make([]prospectView, len(prospects))
	for i, p := range prospects {
		views[i] = toProspectView(p)
	}

	return response.OKWithMeta(c, views, &response.Meta{
		Total:    total,
		PageSize: limit,
		HasMore:  offset+len(views) < total,
	})
}
