package model

// TrendDirection is the outcome of a two-window moving-average comparison.
type TrendDirection int

const (
	TrendStable TrendDirection = iota
	TrendIncreasing
	TrendDecreasing
)

// String returns the lowercase direction name.
func (d TrendDirection) String() string {
	switch d {
	case TrendIncreasing:
		return "increasing"
	case TrendDecreasing:
		return "decreasing"
	default:
		return "stable"
	}
}

// TrendResult compares a short-window moving average against a long-window
// one. Magnitude is the absolute percent difference between the two;
// Direction carries the sign and collapses to stable below the significance
// threshold.
type TrendResult struct {
	Direction        TrendDirection
	Magnitude        float64
	ShortTermAverage float64
	LongTermAverage  float64
}
