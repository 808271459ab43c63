package out

import (
	"context"

	"icp_server/core/domain"
)

// JobSummary is the digest sent to the notification channel after a run.
type JobSummary struct {
	Job            *domain.ScoringJob
	ProspectCount  int
	LabelBreakdown map[domain.FitLabel]int
}

// Notifier delivers fire-and-forget operational notifications. Failures are
// logged and swallowed; correctness never depends on delivery.
type Notifier interface {
	NotifyJobCompleted(ctx context.Context, summary *JobSummary) error
	NotifyJobFailed(ctx context.Context, job *domain.ScoringJob, errMsg string) error
}
