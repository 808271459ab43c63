// Package mongodb implements the enrichment payload store adapters.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewClient connects to the enrichment payload store. Access is bursty: one
// batched read per scoring run plus the sweep's subset fetches, not
// per-request traffic, so the pool stays small and idle connections are kept
// warm across a sweep interval rather than recycled aggressively.
func NewClient(url string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(url).
		SetAppName("icp-scoring").
		SetMaxPoolSize(32).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(5 * time.Minute)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}
