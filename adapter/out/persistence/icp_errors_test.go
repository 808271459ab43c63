package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unique violation", &pq.Error{Code: "23505"}, true},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pq.Error{Code: "23505"}), true},
		{"other pq error", &pq.Error{Code: "23503"}, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	dup := fmt.Errorf("scoring job %d: %w", int64(7), ErrDuplicate)
	if !errors.Is(dup, ErrDuplicate) {
		t.Errorf("wrapped duplicate does not match ErrDuplicate: %v", dup)
	}

	missing := fmt.Errorf("scoring job %d: %w", int64(7), ErrNotFound)
	if !errors.Is(missing, ErrNotFound) {
		t.Errorf("wrapped not-found does not match ErrNotFound: %v", missing)
	}
}
