package scoring

import (
	"strconv"
	"strings"

	"icp_server/core/domain"
)

// Score evaluates one enriched profile against a ruleset and returns the raw
// fit score together with the human-readable reason trace.
//
// activeDims is the ruleset's active-dimension count; it doubles as the
// exclusion penalty so that a single exclusion hit drags the score below what
// inclusion bonuses alone can recover. The function is pure: it reads the
// profile and ruleset and touches nothing else.
func Score(p *domain.EnrichedProfile, r *domain.Ruleset, activeDims int) (int, string) {
	score := 0
	var reasons strings.Builder

	for i := range dimensions {
		d := &dimensions[i]
		switch d.kind {
		case kindKeyword:
			score += scoreKeyword(d, p, r, activeDims, &reasons)
		case kindNumeric:
			score += scoreNumeric(d, p, r, activeDims, &reasons)
		}
	}

	return score, strings.TrimSpace(reasons.String())
}

// scoreKeyword applies one keyword dimension. Exclusions are checked before
// inclusions and win outright; a dimension contributes at most one reason
// fragment per run.
func scoreKeyword(d *dimension, p *domain.EnrichedProfile, r *domain.Ruleset, penalty int, reasons *strings.Builder) int {
	vals := d.values(p)
	present := false
	for _, v := range vals {
		if v != "" {
			present = true
			break
		}
	}
	if !present {
		return 0
	}

	if kw := firstMatch(d.excluded(r), vals); kw != "" {
		writeReason(reasons, false, d.label, kw)
		return -penalty
	}

	included := d.included(r)
	if kw := firstMatch(included, vals); kw != "" {
		writeReason(reasons, true, d.label, kw)
		return 1
	}

	if d.hardNoMatch && len(included) > 0 {
		writeReason(reasons, false, d.label, "No Match")
		return -penalty
	}

	return 0
}

// scoreNumeric applies one numeric-range dimension. The bonus requires both
// bounds; the penalty fires on whichever bound is violated, so half-open
// ranges still disqualify.
func scoreNumeric(d *dimension, p *domain.EnrichedProfile, r *domain.Ruleset, penalty int, reasons *strings.Builder) int {
	v := d.number(p)
	if v == nil {
		return 0
	}
	start, end := d.rangeStart(r), d.rangeEnd(r)
	if start == nil && end == nil {
		return 0
	}

	if (start != nil && *v < *start) || (end != nil && *v > *end) {
		writeReason(reasons, false, d.label, strconv.Itoa(*v))
		return -penalty
	}
	if start != nil && end != nil {
		writeReason(reasons, true, d.label, strconv.Itoa(*v))
		return 1
	}
	return 0
}

// firstMatch returns the first keyword (in configured order) found as a
// case-insensitive substring of any field value, or "" when nothing matches.
func firstMatch(keywords, vals []string) string {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		needle := strings.ToLower(kw)
		for _, v := range vals {
			if v == "" {
				continue
			}
			if strings.Contains(strings.ToLower(v), needle) {
				return kw
			}
		}
	}
	return ""
}

// writeReason appends one "(✅ label: detail) " fragment. The trailing space
// is the fragment separator; Score trims the final one.
func writeReason(b *strings.Builder, matched bool, label, detail string) {
	if matched {
		b.WriteString("(✅ ")
	} else {
		b.WriteString("(❌ ")
	}
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(detail)
	b.WriteString(") ")
}
