// Package out defines outbound ports implemented by adapters.
package out

import (
	"context"
	"time"
)

// PayloadLocation is a structured location inside an enrichment payload.
type PayloadLocation struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"` // ISO-ish country code, e.g. "US"
}

// PayloadPosition is one work-history entry inside an enrichment payload.
type PayloadPosition struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartYear   int    `json:"start_year"` // 0 = unknown
	EndYear     int    `json:"end_year"`   // 0 = unknown or current
}

// PersonalSection is the individual half of an enrichment payload.
type PersonalSection struct {
	Title     string            `json:"title"`
	Industry  string            `json:"industry"`
	Summary   string            `json:"summary"`
	Location  *PayloadLocation  `json:"location,omitempty"`
	Skills    []string          `json:"skills,omitempty"`
	Positions []PayloadPosition `json:"positions,omitempty"` // most recent first
	Education []string          `json:"education,omitempty"`
}

// CompanySection is the employer half of an enrichment payload.
type CompanySection struct {
	Name        string           `json:"name"`
	Location    *PayloadLocation `json:"location,omitempty"`
	StaffCount  *int             `json:"staff_count,omitempty"`
	Description string           `json:"description"`
}

// EnrichmentPayload is the nested document the third-party data provider
// produces for one prospect. The provider may hold several snapshots per
// prospect; only the latest one matters for scoring.
type EnrichmentPayload struct {
	ProspectID int64           `json:"prospect_id"`
	FetchedAt  time.Time       `json:"fetched_at"`
	Personal   PersonalSection `json:"personal"`
	Company    CompanySection  `json:"company"`
}

// EnrichmentProvider reads enrichment payloads. Implementations are read-only
// with respect to prospect records.
type EnrichmentProvider interface {
	// GetLatestPayload returns the most recent payload for a prospect, or
	// nil when none exists. Absence is not an error.
	GetLatestPayload(ctx context.Context, prospectID int64) (*EnrichmentPayload, error)

	// GetLatestPayloads batch-fetches the most recent payload per prospect.
	// Prospects without a payload are simply absent from the result map.
	GetLatestPayloads(ctx context.Context, prospectIDs []int64) (map[int64]*EnrichmentPayload, error)
}
