package stream

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"icp_server/adapter/in/worker"
	"icp_server/core/port/out"
)

type Producer struct {
	stream *RedisStream
}

func NewProducer(stream *RedisStream) *Producer {
	return &Producer{stream: stream}
}

// Job is the wire envelope. The payload stays raw JSON so int64 job IDs
// survive the trip to the consumer exactly; see worker.Message.
type Job struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func newJob(jobType string, payload any) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   raw,
		CreatedAt: time.Now(),
	}, nil
}

// PublishScoringRun enqueues a scoring run for an already-persisted job.
func (p *Producer) PublishScoringRun(ctx context.Context, jobID, campaignID int64) (string, error) {
	job, err := newJob(worker.JobScoringRun, worker.ScoringRunPayload{
		JobID:      jobID,
		CampaignID: campaignID,
	})
	if err != nil {
		return "", err
	}
	return p.stream.Publish(ctx, StreamScoring, job)
}

// PublishStaleSweep enqueues a staleness sweep for one campaign.
func (p *Producer) PublishStaleSweep(ctx context.Context, campaignID int64) (string, error) {
	job, err := newJob(worker.JobScoringSweep, worker.ScoringSweepPayload{
		CampaignID: campaignID,
	})
	if err != nil {
		return "", err
	}
	return p.stream.Publish(ctx, StreamScoring, job)
}

var _ out.MessageProducer = (*Producer)(nil)
