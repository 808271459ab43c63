package scoring

import "icp_server/core/domain"

// LabelScale maps raw scores onto the five ordinal fit labels. Labels are
// batch-relative: the scale is computed from the score distribution of one
// run and applies only to that run.
type LabelScale struct {
	min    int
	max    int
	negMid int
	posMid int
}

// NewLabelScale derives a scale from a batch's raw scores. Zero always maps
// to neutral; the negative and positive halves are split at their midpoints.
func NewLabelScale(scores []int) LabelScale {
	s := LabelScale{}
	if len(scores) == 0 {
		return s
	}
	s.min, s.max = scores[0], scores[0]
	for _, v := range scores[1:] {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	// Integer midpoints of [min,0) and (0,max]. Truncation toward zero keeps
	// the label thresholds monotone for any min/max combination.
	s.negMid = s.min / 2
	s.posMid = s.max / 2
	return s
}

// LabelFor buckets one raw score.
func (s LabelScale) LabelFor(score int) domain.FitLabel {
	switch {
	case score == 0:
		return domain.FitNeutral
	case score < 0:
		if score <= s.negMid {
			return domain.FitVeryLow
		}
		return domain.FitLow
	default:
		if score > s.posMid {
			return domain.FitVeryHigh
		}
		return domain.FitHigh
	}
}
