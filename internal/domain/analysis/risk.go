package analysis

// RiskLevel enum
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// ClampScore forces a score into the [0,100] range the model is contracted
// to return.
func ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// RiskLevelFor maps a fraud score to its risk bucket:
//
//	0-30   LOW
//	31-70  MEDIUM
//	71-90  HIGH
//	91-100 CRITICAL
//
// This is the only place the thresholds live. Rendering layers must derive
// colors and labels from the returned level, never from ad hoc score
// comparisons.
func RiskLevelFor(score int) RiskLevel {
	score = ClampScore(score)
	switch {
	case score > 90:
		return RiskCritical
	case score > 70:
		return RiskHigh
	case score > 30:
		return RiskMedium
	default:
		return RiskLow
	}
}
