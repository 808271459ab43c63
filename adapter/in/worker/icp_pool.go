package worker

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-pkgz/pool"
	"github.com/rs/zerolog"
)

// ErrPoolSaturated is returned to callers when a message cannot be accepted;
// stream consumers leave the message unacked so it is redelivered.
var ErrPoolSaturated = errors.New("worker pool saturated")

// PoolConfig holds worker pool configuration.
type PoolConfig struct {
	MaxWorkers     int           // concurrent message workers
	QueueSize      int           // accepted-but-unprocessed ceiling
	JobTimeout     time.Duration // per-message processing timeout
	MaxRetries     int           // resubmissions before DLQ; wired to the job attempt ceiling
	BatchSize      int           // go-pkgz/pool batch size
	WorkerChanSize int           // go-pkgz/pool worker channel buffer
}

// DefaultPoolConfig returns default pool configuration. Scoring runs are
// long-lived compared to typical queue work, so the timeout is generous.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		MaxWorkers:     4,
		QueueSize:      500,
		JobTimeout:     5 * time.Minute,
		MaxRetries:     3,
		BatchSize:      1,
		WorkerChanSize: 16,
	}
}

// Pool runs queue messages through the dispatch handler on a go-pkgz/pool
// worker group, with message-level retry and a dead letter queue.
type Pool struct {
	handler *Handler
	config  *PoolConfig

	pool *pool.WorkerGroup[*Message]

	ctx    context.Context
	cancel context.CancelFunc

	metrics *PoolMetrics
	log     zerolog.Logger

	dlq   chan *Message
	dlqWg sync.WaitGroup

	started bool
	mu      sync.Mutex
}

// PoolMetrics holds pool counters.
type PoolMetrics struct {
	JobsProcessed int64
	JobsFailed    int64
	JobsRetried   int64
	QueueSize     int32
}

// messageWorker implements pool.Worker for Message processing.
type messageWorker struct {
	pool *Pool
}

func (w *messageWorker) Do(ctx context.Context, msg *Message) error {
	return w.pool.processJob(ctx, msg)
}

// NewPool creates a new worker pool.
func NewPool(handler *Handler, config *PoolConfig, log zerolog.Logger) *Pool {
	if config == nil {
		config = DefaultPoolConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		handler: handler,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
		metrics: &PoolMetrics{},
		log:     log.With().Str("component", "worker_pool").Logger(),
		dlq:     make(chan *Message, 100),
	}
}

// Start starts the worker pool.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return
	}

	worker := &messageWorker{pool: p}
	p.pool = pool.New[*Message](p.config.MaxWorkers, worker).
		WithBatchSize(p.config.BatchSize).
		WithWorkerChanSize(p.config.WorkerChanSize).
		WithContinueOnError()

	if err := p.pool.Go(p.ctx); err != nil {
		p.log.Error().Err(err).Msg("failed to start worker pool")
		return
	}

	p.started = true

	p.dlqWg.Add(1)
	go p.dlqProcessor()

	p.log.Info().
		Int("max_workers", p.config.MaxWorkers).
		Int("queue_size", p.config.QueueSize).
		Msg("worker pool started")
}

// Stop gracefully stops the worker pool.
func (p *Pool) Stop() {
	p.log.Info().Msg("stopping worker pool...")

	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer closeCancel()

	if p.pool != nil {
		if err := p.pool.Close(closeCtx); err != nil {
			p.log.Warn().Err(err).Msg("error closing worker pool")
		}
	}

	p.cancel()

	close(p.dlq)
	p.dlqWg.Wait()

	p.log.Info().
		Int64("processed", atomic.LoadInt64(&p.metrics.JobsProcessed)).
		Int64("failed", atomic.LoadInt64(&p.metrics.JobsFailed)).
		Msg("worker pool stopped")
}

// Submit submits a message to the pool. Returns false when the pool is not
// running or its backlog is full.
func (p *Pool) Submit(msg *Message) bool {
	p.mu.Lock()
	if !p.started || p.pool == nil {
		p.mu.Unlock()
		return false
	}
	p.mu.Unlock()

	if int(atomic.LoadInt32(&p.metrics.QueueSize)) >= p.config.QueueSize {
		return false
	}

	p.pool.Submit(msg)
	atomic.AddInt32(&p.metrics.QueueSize, 1)
	return true
}

// processJob processes a single message with timeout and retry.
func (p *Pool) processJob(ctx context.Context, msg *Message) error {
	defer atomic.AddInt32(&p.metrics.QueueSize, -1)

	jobCtx, cancel := context.WithTimeout(ctx, p.config.JobTimeout)
	defer cancel()

	err := p.handler.Process(jobCtx, msg)
	if err == nil {
		atomic.AddInt64(&p.metrics.JobsProcessed, 1)
		return nil
	}

	p.log.Error().
		Err(err).
		Str("job_id", msg.ID).
		Str("job_type", msg.Type).
		Int("retries", msg.Retries).
		Msg("job processing failed")

	// Resubmission only schedules another attempt; whether it runs is
	// decided by the scoring job's claim gate, which counts attempts
	// durably. MaxRetries mirrors that ceiling so an exhausted job is never
	// resubmitted past the point where every claim would be refused.
	if msg.Retries < p.config.MaxRetries {
		msg.Retries++
		atomic.AddInt64(&p.metrics.JobsRetried, 1)

		// Exponential backoff with jitter to avoid synchronized retries.
		base := time.Duration(1<<msg.Retries) * time.Second
		jitter := time.Duration(rand.Intn(500)) * time.Millisecond
		time.AfterFunc(base+jitter, func() {
			p.Submit(msg)
		})
		return err
	}

	atomic.AddInt64(&p.metrics.JobsFailed, 1)
	select {
	case p.dlq <- msg:
		p.log.Warn().
			Str("job_id", msg.ID).
			Str("job_type", msg.Type).
			Msg("job moved to DLQ after max retries")
	default:
		p.log.Error().Str("job_id", msg.ID).Msg("DLQ full, job lost")
	}
	return err
}

// dlqProcessor drains the dead letter queue.
func (p *Pool) dlqProcessor() {
	defer p.dlqWg.Done()

	for {
		select {
		case <-p.ctx.Done():
			for msg := range p.dlq {
				p.log.Error().
					Str("job_id", msg.ID).
					Str("job_type", msg.Type).
					Msg("DLQ: job lost during shutdown")
			}
			return
		case msg, ok := <-p.dlq:
			if !ok {
				return
			}
			// The scoring job row keeps the durable failure record; the DLQ
			// log line is for operators chasing a specific message.
			p.log.Error().
				Str("job_id", msg.ID).
				Str("job_type", msg.Type).
				Int("retries", msg.Retries).
				Interface("payload", msg.Payload).
				Msg("DLQ: job permanently failed")
		}
	}
}

// GetMetrics returns current pool metrics.
func (p *Pool) GetMetrics() PoolMetrics {
	return PoolMetrics{
		JobsProcessed: atomic.LoadInt64(&p.metrics.JobsProcessed),
		JobsFailed:    atomic.LoadInt64(&p.metrics.JobsFailed),
		JobsRetried:   atomic.LoadInt64(&p.metrics.JobsRetried),
		QueueSize:     atomic.LoadInt32(&p.metrics.QueueSize),
	}
}
