package stream

import (
	"testing"

	"github.com/goccy/go-json"

	"icp_server/adapter/in/worker"
)

// Covers the full wire path a queued job takes: producer envelope → JSON on
// the stream → consumer decode → typed payload. IDs above 2^53 must come out
// bit-for-bit, not rounded through float64.
func TestJobEnvelope_RoundTripKeepsIDsExact(t *testing.T) {
	const (
		jobID      = int64(353579827200020481)
		campaignID = int64(353579827200020483)
	)

	job, err := newJob(worker.JobScoringRun, worker.ScoringRunPayload{
		JobID:      jobID,
		CampaignID: campaignID,
	})
	if err != nil {
		t.Fatalf("newJob: %v", err)
	}

	wire, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Job
	if err := json.Unmarshal(wire, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	msg := &worker.Message{
		ID:        decoded.ID,
		Type:      decoded.Type,
		Payload:   decoded.Payload,
		CreatedAt: decoded.CreatedAt,
	}
	payload, err := worker.ParsePayload[worker.ScoringRunPayload](msg)
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}

	if payload.JobID != jobID {
		t.Errorf("JobID = %d, want %d", payload.JobID, jobID)
	}
	if payload.CampaignID != campaignID {
		t.Errorf("CampaignID = %d, want %d", payload.CampaignID, campaignID)
	}
	if msg.Type != worker.JobScoringRun {
		t.Errorf("Type = %q, want %q", msg.Type, worker.JobScoringRun)
	}
}
