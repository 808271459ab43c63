package snowflake

import (
	"sync"
	"testing"
)

func TestNewGenerator(t *testing.T) {
	tests := []struct {
		name     string
		workerID int64
		wantErr  bool
	}{
		{"valid worker 0", 0, false},
		{"valid worker 1", 1, false},
		{"valid worker max", 1023, false},
		{"invalid worker -1", -1, true},
		{"invalid worker 1024", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(tt.workerID)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewGenerator(%d) error = %v, wantErr %v", tt.workerID, err, tt.wantErr)
			}
		})
	}
}

func TestGenerate_Unique(t *testing.T) {
	gen, err := NewGenerator(1)
	if err != nil {
		t.Fatal(err)
	}

	ids := make(map[int64]bool)
	count := 10000

	for i := 0; i < count; i++ {
		id, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if ids[id] {
			t.Fatalf("duplicate ID generated: %d", id)
		}
		ids[id] = true
	}
}

func TestGenerate_Monotonic(t *testing.T) {
	gen, err := NewGenerator(2)
	if err != nil {
		t.Fatal(err)
	}

	var prev int64
	for i := 0; i < 1000; i++ {
		id, err := gen.Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if id <= prev {
			t.Fatalf("IDs not monotonically increasing: %d after %d", id, prev)
		}
		prev = id
	}
}

func TestGenerate_Concurrent(t *testing.T) {
	gen, err := NewGenerator(1)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := make(map[int64]bool)

	workers := 8
	perWorker := 2000

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, gen.MustGenerate())
			}
			mu.Lock()
			for _, id := range local {
				if ids[id] {
					t.Errorf("duplicate ID across goroutines: %d", id)
				}
				ids[id] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(ids) != workers*perWorker {
		t.Errorf("expected %d unique IDs, got %d", workers*perWorker, len(ids))
	}
}

func TestParse(t *testing.T) {
	gen, err := NewGenerator(42)
	if err != nil {
		t.Fatal(err)
	}

	id := gen.MustGenerate()
	_, workerID, _ := Parse(id)
	if workerID != 42 {
		t.Errorf("Parse() workerID = %d, want 42", workerID)
	}
}
