package scoring

import (
	"testing"

	"icp_server/core/domain"
)

func TestLabelScale_FiveBuckets(t *testing.T) {
	scale := NewLabelScale([]int{-10, -4, 0, 2, 4})

	tests := []struct {
		score int
		want  domain.FitLabel
	}{
		{-10, domain.FitVeryLow},
		{-6, domain.FitVeryLow},
		{-5, domain.FitVeryLow}, // at the negative midpoint
		{-4, domain.FitLow},
		{-1, domain.FitLow},
		{0, domain.FitNeutral},
		{1, domain.FitHigh},
		{2, domain.FitHigh}, // at the positive midpoint
		{3, domain.FitVeryHigh},
		{4, domain.FitVeryHigh},
	}

	for _, tt := range tests {
		if got := scale.LabelFor(tt.score); got != tt.want {
			t.Errorf("LabelFor(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestLabelScale_ZeroAlwaysNeutral(t *testing.T) {
	scales := [][]int{
		{0},
		{-100, 0, 100},
		{0, 0, 0},
		{-1, 0},
		{0, 1},
	}
	for _, scores := range scales {
		scale := NewLabelScale(scores)
		if got := scale.LabelFor(0); got != domain.FitNeutral {
			t.Errorf("LabelFor(0) with batch %v = %s, want neutral", scores, got)
		}
	}
}

func TestLabelScale_Monotonic(t *testing.T) {
	scale := NewLabelScale([]int{-7, -3, -1, 0, 1, 3, 5})

	prev := scale.LabelFor(-7)
	for score := -6; score <= 5; score++ {
		cur := scale.LabelFor(score)
		if cur < prev {
			t.Fatalf("label decreased from %s to %s at score %d", prev, cur, score)
		}
		prev = cur
	}
}

func TestLabelScale_SameScoreSameLabel(t *testing.T) {
	scale := NewLabelScale([]int{-4, 2, 2, -4, 0})
	if scale.LabelFor(2) != scale.LabelFor(2) {
		t.Error("identical scores must map to identical labels")
	}
}

func TestLabelScale_AllPositiveBatch(t *testing.T) {
	scale := NewLabelScale([]int{1, 2, 3, 8})

	if got := scale.LabelFor(1); got != domain.FitHigh {
		t.Errorf("LabelFor(1) = %s, want high", got)
	}
	if got := scale.LabelFor(8); got != domain.FitVeryHigh {
		t.Errorf("LabelFor(8) = %s, want very_high", got)
	}
}

func TestLabelScale_SingleScoreBatch(t *testing.T) {
	scale := NewLabelScale([]int{3})
	if got := scale.LabelFor(3); got != domain.FitVeryHigh {
		t.Errorf("LabelFor(3) = %s, want very_high", got)
	}

	scale = NewLabelScale([]int{-3})
	if got := scale.LabelFor(-3); got != domain.FitVeryLow {
		t.Errorf("LabelFor(-3) = %s, want very_low", got)
	}
}

func TestLabelScale_EmptyBatch(t *testing.T) {
	scale := NewLabelScale(nil)
	if got := scale.LabelFor(0); got != domain.FitNeutral {
		t.Errorf("LabelFor(0) = %s, want neutral", got)
	}
}
