package format

import (
	"fmt"
	"strings"
	"time"
)

// FormatLatency formats a latency value in milliseconds.
// Values >= 1000 ms are shown as seconds with 2 decimal places.
// Values < 1000 ms are shown as ms with 2 decimal places.
// Negative values (no measurement yet) return "---".
func FormatLatency(ms float64) string {
	if ms < 0 {
		return "---"
	}
	if ms >= 1000 {
		return fmt.Sprintf("%.2f s", ms/1000)
	}
	return fmt.Sprintf("%.2f ms", ms)
}

// FormatTokenRate formats a tokens/sec rate with comma-separated thousands
// and one decimal place. Example: 1204.3 → "1,204.3 tok/s".
// Negative values return "---".
func FormatTokenRate(tokensPerSec float64) string {
	if tokensPerSec < 0 {
		return "---"
	}
	if tokensPerSec == 0 {
		return "0 tok/s"
	}
	return formatCommaFloat(tokensPerSec) + " tok/s"
}

// FormatPercent formats a [0,1] fraction as a percentage with one decimal
// place. Example: 0.345 → "34.5%".
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.1f%%", fraction*100)
}

// FormatScore formats a [0,1] indicator score with two decimal places.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.2f", score)
}

// FormatAge formats how long ago t was, relative to now, in the coarsest
// sensible unit: "42s", "3m10s", "2h05m". Zero or future times return "now".
func FormatAge(t, now time.Time) string {
	if t.IsZero() || !t.Before(now) {
		return "now"
	}
	d := now.Sub(t).Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	}
}

// formatCommaFloat formats a float with comma-separated thousands and one decimal place.
func formatCommaFloat(f float64) string {
	formatted := fmt.Sprintf("%.1f", f)
	sign := ""
	if len(formatted) > 0 && formatted[0] == '-' {
		sign = "-"
		formatted = formatted[1:]
	}
	parts := strings.SplitN(formatted, ".", 2)
	intPart := insertCommas(parts[0])
	if len(parts) == 2 {
		return sign + intPart + "." + parts[1]
	}
	return sign + intPart
}

// insertCommas inserts comma separators into a digit string every 3 digits from the right.
func insertCommas(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var buf strings.Builder
	lead := n % 3
	if lead > 0 {
		buf.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(s[i : i+3])
	}
	return buf.String()
}
