// Package worker contains the inbound job-processing adapters: message
// definitions, the dispatch handler, the worker pool, and the interval
// schedulers.
package worker

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// JobType represents the type of a job.
type JobType = string

// Job types
const (
	JobScoringRun   JobType = "scoring.run"
	JobScoringSweep JobType = "scoring.sweep"
)

// Message carries its payload as raw JSON end-to-end. Snowflake job IDs
// exceed float64's 53-bit exact integer range, so the payload must never be
// round-tripped through map[string]any; it is decoded once, into its typed
// struct, by ParsePayload.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	Retries   int             `json:"retries"`
}

func NewMessage(jobType string, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   raw,
		CreatedAt: time.Now(),
		Retries:   0,
	}, nil
}

// ScoringRunPayload targets one persisted scoring job.
type ScoringRunPayload struct {
	JobID      int64 `json:"job_id"`
	CampaignID int64 `json:"campaign_id"`
}

// ScoringSweepPayload requests a staleness sweep. A zero CampaignID sweeps
// every active campaign.
type ScoringSweepPayload struct {
	CampaignID int64 `json:"campaign_id"`
}
