// Package notify implements operational notification adapters.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"icp_server/core/domain"
	"icp_server/core/port/out"
	"icp_server/pkg/httputil"
)

// SlackNotifier posts scoring job digests to a Slack incoming webhook. An
// empty webhook URL disables delivery without disabling the caller; the
// breaker keeps a dead webhook from stalling job completion paths.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	breaker    *gobreaker.CircuitBreaker
	log        zerolog.Logger
}

// NewSlackNotifier creates a Slack webhook notifier.
func NewSlackNotifier(webhookURL string, log zerolog.Logger) *SlackNotifier {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "slack_webhook",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     httputil.SharedClient(),
		breaker:    breaker,
		log:        log.With().Str("component", "slack_notifier").Logger(),
	}
}

// slackMessage is the incoming-webhook payload.
type slackMessage struct {
	Text string `json:"text"`
}

// NotifyJobCompleted posts a completion digest with the label breakdown.
func (n *SlackNotifier) NotifyJobCompleted(ctx context.Context, summary *out.JobSummary) error {
	var b strings.Builder
	fmt.Fprintf(&b, ":white_check_mark: ICP scoring completed for campaign %d\n", summary.Job.CampaignID)
	fmt.Fprintf(&b, "Job `%d` scored %d prospects", summary.Job.ID, summary.ProspectCount)
	if summary.Job.Manual {
		b.WriteString(" (manual trigger)")
	}
	b.WriteString("\n")

	for label := domain.FitVeryHigh; ; label-- {
		if count := summary.LabelBreakdown[label]; count > 0 {
			fmt.Fprintf(&b, "• %s: %d\n", label, count)
		}
		if label == domain.FitVeryLow {
			break
		}
	}

	return n.post(ctx, &slackMessage{Text: b.String()})
}

// NotifyJobFailed posts a failure alert once a job exhausts its retries.
func (n *SlackNotifier) NotifyJobFailed(ctx context.Context, job *domain.ScoringJob, errMsg string) error {
	text := fmt.Sprintf(
		":rotating_light: ICP scoring failed for campaign %d\nJob `%d` gave up after %d attempts: %s",
		job.CampaignID, job.ID, job.Attempts, errMsg,
	)
	return n.post(ctx, &slackMessage{Text: text})
}

func (n *SlackNotifier) post(ctx context.Context, msg *slackMessage) error {
	if n.webhookURL == "" {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal slack message: %w", err)
	}

	_, err = n.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("slack webhook returned %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		n.log.Warn().Err(err).Msg("slack delivery failed")
		return fmt.Errorf("failed to deliver slack notification: %w", err)
	}

	return nil
}

var _ out.Notifier = (*SlackNotifier)(nil)
