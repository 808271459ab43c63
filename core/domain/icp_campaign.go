package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Campaign represents an outbound sales campaign. Each campaign owns at most
// one ICP ruleset and any number of assigned prospects.
type Campaign struct {
	ID       int64     `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Name     string    `json:"name"`
	IsActive bool      `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CampaignRepository interface for campaign read operations.
type CampaignRepository interface {
	GetByID(ctx context.Context, id int64) (*Campaign, error)
	ListActive(ctx context.Context) ([]*Campaign, error)
}
