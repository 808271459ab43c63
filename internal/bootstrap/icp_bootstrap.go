package bootstrap

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"icp_server/adapter/in/worker"
	"icp_server/config"
	"icp_server/internal/stream"
	"icp_server/pkg/logger"
)

// Worker is the queue-processing process: a message pool fed by the Redis
// stream consumer, plus the staleness sweep scheduler.
type Worker struct {
	pool      *worker.Pool
	consumer  *stream.Consumer
	scheduler *worker.StaleSweepScheduler
	deps      *Dependencies
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	zlog      zerolog.Logger
}

func NewWorker(cfg *config.Config) (*Worker, func(), error) {
	logger.Init(logger.Config{
		Level:   logger.LevelInfo,
		Service: "icp-worker",
	})

	deps, cleanup, err := NewDependencies(cfg)
	if err != nil {
		return nil, nil, err
	}

	zlog := deps.Zlog.With().Str("component", "worker").Logger()

	scoringProcessor := worker.NewScoringProcessor(deps.BatchService, deps.CampaignRepo)
	handler := worker.NewHandler(scoringProcessor)

	poolConfig := worker.DefaultPoolConfig()
	if cfg.WorkerCount > 0 {
		poolConfig.MaxWorkers = cfg.WorkerCount
	}
	if cfg.WorkerQueueSize > 0 {
		poolConfig.QueueSize = cfg.WorkerQueueSize
	}
	// One retry knob: message resubmission follows the job attempt ceiling,
	// and the job table's claim gate is what admits each actual attempt.
	if cfg.ScoringMaxAttempts > 0 {
		poolConfig.MaxRetries = cfg.ScoringMaxAttempts
	}
	pool := worker.NewPool(handler, poolConfig, zlog)

	ctx, cancel := context.WithCancel(context.Background())

	w := &Worker{
		pool:   pool,
		deps:   deps,
		ctx:    ctx,
		cancel: cancel,
		zlog:   zlog,
	}

	if deps.Stream != nil {
		w.consumer = stream.NewConsumer(deps.Stream, pool, cfg.WorkerID)
		logger.Info("Redis Stream Consumer configured (consumer: %s)", cfg.WorkerID)
	} else {
		logger.Warn("Redis not available, worker will not receive queued jobs")
	}

	if cfg.SweepEnabled && deps.Stream != nil {
		w.scheduler = worker.NewStaleSweepScheduler(deps.CampaignRepo, deps.MessageProducer, cfg.SweepInterval)
	}

	return w, cleanup, nil
}

func (w *Worker) Start() {
	w.pool.Start()

	if w.consumer != nil {
		w.zlog.Info().Msg("Starting Redis Stream Consumer...")
		w.consumer.Start(w.ctx)
	}

	if w.scheduler != nil {
		w.scheduler.Start()
		w.zlog.Info().Msg("Started Stale Sweep Scheduler")
	}

	<-w.ctx.Done()
}

func (w *Worker) Stop() {
	w.cancel()

	if w.scheduler != nil {
		w.scheduler.Stop()
	}

	w.pool.Stop()
	w.wg.Wait()
}

// Submit hands a message directly to the pool, bypassing the queue.
func (w *Worker) Submit(msg *worker.Message) bool {
	return w.pool.Submit(msg)
}

func (w *Worker) GetMetrics() worker.PoolMetrics {
	return w.pool.GetMetrics()
}

func (w *Worker) Dependencies() *Dependencies {
	return w.deps
}
