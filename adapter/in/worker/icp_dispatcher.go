package worker

import (
	"context"

	"github.com/goccy/go-json"

	"icp_server/pkg/logger"
)

type Handler struct {
	scoringProcessor *ScoringProcessor
}

func NewHandler(scoringProcessor *ScoringProcessor) *Handler {
	return &Handler{
		scoringProcessor: scoringProcessor,
	}
}

func (h *Handler) Process(ctx context.Context, msg *Message) error {
	logger.Debug("Processing message: %s", msg.Type)

	switch msg.Type {
	case JobScoringRun:
		return h.scoringProcessor.ProcessRun(ctx, msg)
	case JobScoringSweep:
		return h.scoringProcessor.ProcessSweep(ctx, msg)
	default:
		logger.Warn("Unknown job type: %s", msg.Type)
		return nil
	}
}

// ParsePayload decodes the raw payload into its typed struct. Decoding
// directly from the wire bytes keeps int64 IDs exact.
func ParsePayload[T any](msg *Message) (*T, error) {
	var payload T
	if len(msg.Payload) == 0 {
		return &payload, nil
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}
