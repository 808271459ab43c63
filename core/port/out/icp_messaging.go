package out

import "context"

// MessageProducer publishes scoring jobs onto the task queue.
type MessageProducer interface {
	// PublishScoringRun enqueues a scoring run message for a job that has
	// already been persisted. Returns the queue message ID.
	PublishScoringRun(ctx context.Context, jobID, campaignID int64) (string, error)

	// PublishStaleSweep enqueues a staleness sweep for one campaign.
	PublishStaleSweep(ctx context.Context, campaignID int64) (string, error)
}
