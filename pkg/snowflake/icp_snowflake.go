// Package snowflake implements a Snowflake-style unique ID generator.
//
// ID layout (64 bits): 1 sign bit, 41 bits of milliseconds since a custom
// epoch, 10 bits of worker ID, 12 bits of per-millisecond sequence. IDs are
// time-sortable, which keeps scoring job audit records naturally ordered.
package snowflake

import (
	"errors"
	"hash/fnv"
	"os"
	"strconv"
	"sync"
	"time"
)

const (
	// Custom epoch: 2024-01-01 00:00:00 UTC
	epoch int64 = 1704067200000

	workerIDBits = 10
	sequenceBits = 12

	maxWorkerID = (1 << workerIDBits) - 1 // 1023
	maxSequence = (1 << sequenceBits) - 1 // 4095

	timestampShift = workerIDBits + sequenceBits
	workerIDShift  = sequenceBits
)

var (
	ErrInvalidWorkerID = errors.New("worker ID must be between 0 and 1023")
	ErrClockMovedBack  = errors.New("clock moved backwards")
)

// Generator generates unique Snowflake IDs.
type Generator struct {
	mu       sync.Mutex
	workerID int64
	sequence int64
	lastTime int64
}

// NewGenerator creates a new Snowflake ID generator.
// workerID must be between 0 and 1023.
func NewGenerator(workerID int64) (*Generator, error) {
	if workerID < 0 || workerID > maxWorkerID {
		return nil, ErrInvalidWorkerID
	}
	return &Generator{workerID: workerID}, nil
}

// Generate generates a new unique Snowflake ID.
func (g *Generator) Generate() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := currentTimeMillis()

	if now < g.lastTime {
		return 0, ErrClockMovedBack
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & maxSequence
		if g.sequence == 0 {
			// Sequence exhausted for this millisecond
			now = waitNextMillis(g.lastTime)
		}
	} else {
		g.sequence = 0
	}

	g.lastTime = now

	id := ((now - epoch) << timestampShift) |
		(g.workerID << workerIDShift) |
		g.sequence

	return id, nil
}

// MustGenerate generates a new ID and panics on error.
func (g *Generator) MustGenerate() int64 {
	id, err := g.Generate()
	if err != nil {
		panic(err)
	}
	return id
}

// Parse extracts components from a Snowflake ID.
func Parse(id int64) (timestamp time.Time, workerID int64, sequence int64) {
	ts := (id >> timestampShift) + epoch
	timestamp = time.UnixMilli(ts)
	workerID = (id >> workerIDShift) & maxWorkerID
	sequence = id & maxSequence
	return
}

// Timestamp extracts the timestamp from a Snowflake ID.
func Timestamp(id int64) time.Time {
	return time.UnixMilli((id >> timestampShift) + epoch)
}

func currentTimeMillis() int64 {
	return time.Now().UnixMilli()
}

func waitNextMillis(lastTime int64) int64 {
	now := currentTimeMillis()
	for now <= lastTime {
		time.Sleep(100 * time.Microsecond)
		now = currentTimeMillis()
	}
	return now
}

// =============================================================================
// Global Generator
// =============================================================================

var (
	globalGen  *Generator
	globalOnce sync.Once
	globalErr  error
)

// Init initializes the global generator with the given worker ID.
// Call once at application startup.
func Init(workerID int64) error {
	globalOnce.Do(func() {
		globalGen, globalErr = NewGenerator(workerID)
	})
	return globalErr
}

// ID generates a new Snowflake ID using the global generator.
func ID() int64 {
	if globalGen == nil {
		panic("snowflake: global generator not initialized, call Init() first")
	}
	return globalGen.MustGenerate()
}

// NodeIDFromEnv resolves the worker ID for Init: SNOWFLAKE_NODE_ID when set,
// otherwise a stable hash of hostname and PID. Collisions across replicas are
// possible with the fallback but only risk ID reuse within one millisecond.
func NodeIDFromEnv() int64 {
	if v := os.Getenv("SNOWFLAKE_NODE_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id >= 0 && id <= maxWorkerID {
			return id
		}
	}

	hostname, _ := os.Hostname()
	h := fnv.New32a()
	h.Write([]byte(hostname))
	h.Write([]byte(strconv.Itoa(os.Getpid())))
	return int64(h.Sum32()) & maxWorkerID
}
