// Package bootstrap wires configuration, connections, adapters, and services
// into runnable API and worker processes.
package bootstrap

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"icp_server/adapter/out/mongodb"
	"icp_server/adapter/out/notify"
	"icp_server/adapter/out/persistence"
	"icp_server/config"
	"icp_server/core/domain"
	"icp_server/core/port/out"
	"icp_server/core/service/profile"
	"icp_server/core/service/ruleset"
	"icp_server/core/service/scoring"
	"icp_server/infra/database"
	"icp_server/internal/stream"
	"icp_server/pkg/logger"
	"icp_server/pkg/ratelimit"
)

// consumerGroup is the Redis stream consumer group shared by all workers.
const consumerGroup = "icp-workers"

type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client
	Zlog    zerolog.Logger

	// Repositories
	CampaignRepo domain.CampaignRepository
	ProspectRepo domain.ProspectRepository
	RulesetRepo  domain.RulesetRepository
	JobRepo      domain.ScoringJobRepository

	// Enrichment payload source
	EnrichmentProvider out.EnrichmentProvider

	// Messaging
	Stream          *stream.RedisStream
	MessageProducer out.MessageProducer

	// Notifications
	Notifier out.Notifier

	// Rate limiting
	TriggerLimiter ratelimit.Limiter

	// Services
	RulesetService *ruleset.Service
	Enricher       *profile.Enricher
	BatchService   *scoring.BatchService
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		With().Timestamp().Logger()
	deps.Zlog = zlog

	// Database (pgxpool for health checks and future pgx-native paths)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	// Database (sqlx for the repository adapters)
	sqlDB, err := database.NewSQLX(cfg.DatabaseURL)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	// Redis (streams + rate limiting); optional in degraded setups
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.Redis = redisClient
		cleanups = append(cleanups, func() { redisClient.Close() })

		deps.Stream = stream.NewRedisStream(redisClient, consumerGroup)
		deps.MessageProducer = stream.NewProducer(deps.Stream)
		deps.TriggerLimiter = ratelimit.NewSlidingWindowLimiter(
			redisClient, cfg.TriggerRateLimit, cfg.TriggerRateWindow)
	} else {
		logger.Warn("Redis not configured, queue and rate limiting disabled")
		deps.MessageProducer = nullProducer{}
	}

	// MongoDB (enrichment payload store)
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.MongoDB = mongoClient
		cleanups = append(cleanups, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		})

		enrichment := mongodb.NewEnrichmentAdapter(mongoClient.Database(cfg.MongoDBName))
		if err := enrichment.EnsureIndexes(context.Background()); err != nil {
			logger.Warn("Failed to ensure MongoDB indexes: %v", err)
		}
		deps.EnrichmentProvider = enrichment
	} else {
		logger.Warn("MongoDB not configured, scoring will use stored prospect fields only")
		deps.EnrichmentProvider = nullEnrichmentProvider{}
	}

	// Repositories
	deps.CampaignRepo = persistence.NewCampaignAdapter(sqlDB)
	deps.ProspectRepo = persistence.NewProspectAdapter(sqlDB)
	deps.RulesetRepo = persistence.NewRulesetAdapter(sqlDB)
	deps.JobRepo = persistence.NewScoringJobAdapter(sqlDB)

	// Notifications
	if cfg.SlackWebhookURL != "" {
		deps.Notifier = notify.NewSlackNotifier(cfg.SlackWebhookURL, zlog)
	}

	// Services
	deps.RulesetService = ruleset.NewService(deps.RulesetRepo, deps.CampaignRepo, zlog)
	deps.Enricher = profile.NewEnricher(deps.ProspectRepo, deps.EnrichmentProvider, zlog)
	deps.BatchService = scoring.NewBatchService(
		deps.JobRepo,
		deps.ProspectRepo,
		deps.RulesetRepo,
		deps.Enricher,
		deps.MessageProducer,
		deps.Notifier,
		scoring.BatchConfig{
			Workers:       cfg.ScoringWorkers,
			ChunkSize:     cfg.ScoringChunkSize,
			SyncThreshold: cfg.ScoringSyncThreshold,
			MaxAttempts:   cfg.ScoringMaxAttempts,
		},
		zlog,
	)

	return deps, cleanup, nil
}

// nullEnrichmentProvider serves empty payloads when MongoDB is absent, so
// scoring degrades to the fields stored on the prospect rows.
type nullEnrichmentProvider struct{}

func (nullEnrichmentProvider) GetLatestPayload(ctx context.Context, prospectID int64) (*out.EnrichmentPayload, error) {
	return nil, nil
}

func (nullEnrichmentProvider) GetLatestPayloads(ctx context.Context, prospectIDs []int64) (map[int64]*out.EnrichmentPayload, error) {
	return map[int64]*out.EnrichmentPayload{}, nil
}

// nullProducer rejects queue publishes when Redis is absent; only inline runs
// can proceed in that mode.
type nullProducer struct{}

func (nullProducer) PublishScoringRun(ctx context.Context, jobID, campaignID int64) (string, error) {
	return "", errQueueDisabled
}

func (nullProducer) PublishStaleSweep(ctx context.Context, campaignID int64) (string, error) {
	return "", errQueueDisabled
}

var errQueueDisabled = errors.New("task queue not configured")
