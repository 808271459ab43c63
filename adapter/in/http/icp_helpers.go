// Package http contains the inbound REST adapters built on Fiber.
package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"icp_server/pkg/apperr"
)

// CampaignIDParam extracts and validates the campaign id path parameter.
func CampaignIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("campaignID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("campaignID", "must be a positive integer")
	}
	return id, nil
}

// JobIDParam extracts and validates the job id path parameter.
func JobIDParam(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("jobID"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("jobID", "must be a positive integer")
	}
	return id, nil
}

// QueryLimit parses the limit query parameter with a default and a cap.
func QueryLimit(c *fiber.Ctx, def, max int) int {
	limit := c.QueryInt("limit", def)
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return limit
}
