// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"icp_server/core/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CampaignAdapter implements domain.CampaignRepository.
type CampaignAdapter struct {
	db *sqlx.DB
}

// NewCampaignAdapter creates a new CampaignAdapter.
func NewCampaignAdapter(db *sqlx.DB) *CampaignAdapter {
	return &CampaignAdapter{db: db}
}

// campaignRow represents the database row.
type campaignRow struct {
	ID        int64     `db:"id"`
	TenantID  uuid.UUID `db:"tenant_id"`
	Name      string    `db:"name"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *campaignRow) toEntity() *domain.Campaign {
	return &domain.Campaign{
		ID:        r.ID,
		TenantID:  r.TenantID,
		Name:      r.Name,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// GetByID retrieves a campaign by ID. Returns nil when not found.
func (a *CampaignAdapter) GetByID(ctx context.Context, id int64) (*domain.Campaign, error) {
	var row campaignRow
	query := `SELECT * FROM campaigns WHERE id = $1`

	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}

	return row.toEntity(), nil
}

// ListActive retrieves all active campaigns.
func (a *CampaignAdapter) ListActive(ctx context.Context) ([]*domain.Campaign, error) {
	var rows []campaignRow
	query := `SELECT * FROM campaigns WHERE is_active = TRUE ORDER BY id`

	if err := a.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list active campaigns: %w", err)
	}

	campaigns := make([]*domain.Campaign, len(rows))
	for i, row := range rows {
		campaigns[i] = row.toEntity()
	}

	return campaigns, nil
}
