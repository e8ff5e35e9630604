package tui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderScoreSparkline_FixedScale(t *testing.T) {
	// Scores map against [0,1], not the window max: a flat 0.5 series draws
	// at half height even though it is the maximum present.
	out := RenderScoreSparkline([]float64{0.5, 0.5, 0.5}, 3, colorGreen)
	assert.Equal(t, "▄▄▄", stripANSI(out))

	out = RenderScoreSparkline([]float64{0, 0.5, 1}, 3, colorGreen)
	assert.Equal(t, "▁▄█", stripANSI(out))
}

func TestRenderScoreSparkline_PadsAndTruncates(t *testing.T) {
	// Fewer values than width: left-padded with spaces.
	out := RenderScoreSparkline([]float64{1, 1}, 5, colorGreen)
	assert.Equal(t, "   ██", stripANSI(out))

	// More values than width: keeps the last width values.
	out = RenderScoreSparkline([]float64{1, 1, 0, 0}, 2, colorGreen)
	assert.Equal(t, "▁▁", stripANSI(out))
}

func TestRenderScoreSparkline_Edges(t *testing.T) {
	assert.Equal(t, "", RenderScoreSparkline([]float64{1}, 0, colorGreen))
	assert.Equal(t, "    ", RenderScoreSparkline(nil, 4, colorGreen))

	// Out-of-range scores clamp to the end blocks.
	out := RenderScoreSparkline([]float64{-0.5, 1.5}, 2, colorGreen)
	assert.Equal(t, "▁█", stripANSI(out))
}

// stripANSI removes escape sequences so assertions compare glyphs only.
func stripANSI(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
