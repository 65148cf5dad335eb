package models

// ApprovalThreshold is the confidence value below which any agent-proposed
// action must be reviewed by a human before it executes.
const ApprovalThreshold = 0.8

// ConfidenceLevel buckets a [0,1] confidence score into coarse bands used
// for routing: high confidence proceeds automatically, medium and low block
// on human review.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"   // [0.8, 1.0]
	ConfidenceMedium ConfidenceLevel = "medium" // [0.5, 0.8)
	ConfidenceLow    ConfidenceLevel = "low"    // [0.0, 0.5)
)

// LevelForConfidence maps a score onto its ConfidenceLevel bucket. The score
// is clamped first, so out-of-range upstream values never produce an
// unexpected bucket.
func LevelForConfidence(score float64) ConfidenceLevel {
	score = ClampConfidence(score)
	switch {
	case score >= 0.8:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// ClampConfidence coerces a confidence value into [0,1]. Upstream sources
// (agent payloads, transport messages) may deliver values outside the range;
// these are coerced, never rejected.
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
