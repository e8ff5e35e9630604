package history

import (
	"fmt"
	"time"

	"github.com/dm/vitals-go/internal/model"
)

const (
	defaultCapacity = 100

	// DefaultTrendSignificancePct is the percent difference between short-
	// and long-window averages below which a trend reads as stable.
	DefaultTrendSignificancePct = 5.0
)

// Entry is anything the store can journal. A zero At() is stamped with the
// current time on Add.
type Entry interface {
	At() time.Time
}

// Fielder is the optional hook entries implement to expose dotted-path
// values to the generic analytics (Frequency, ChangeRate, Trend). Entries
// without it simply yield empty analytics — never an error.
type Fielder interface {
	Field(path string) (any, bool)
}

// record pairs an entry with its effective timestamp so Add never has to
// mutate the entry to stamp it.
type record[T Entry] struct {
	at    time.Time
	value T
}

// Store is a bounded, insertion-ordered journal of timestamped entries.
// When full, Add overwrites the oldest entry (ring semantics).
type Store[T Entry] struct {
	buf  []record[T]
	head int // next write position
	size int

	significancePct float64
	now             func() time.Time
}

// New creates a Store with the given capacity. Capacity <= 0 uses the
// default of 100.
func New[T Entry](capacity int) *Store[T] {
	return NewWithClock[T](capacity, time.Now)
}

// NewWithClock creates a Store with an injected clock, which anchors the
// trailing windows used by RecentWindow, ChangeRate, and Trend.
func NewWithClock[T Entry](capacity int, now func() time.Time) *Store[T] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &Store[T]{
		buf:             make([]record[T], capacity),
		significancePct: DefaultTrendSignificancePct,
		now:             now,
	}
}

// SetTrendSignificance overrides the percent threshold below which Trend
// reports stable. Non-positive values are ignored.
func (s *Store[T]) SetTrendSignificance(pct float64) {
	if pct > 0 {
		s.significancePct = pct
	}
}

// Add journals an entry, stamping the current time when the entry carries a
// zero timestamp. The stamp lives on the journal record; the entry itself
// is stored unmodified (LastStamped exposes the effective timestamps). The
// oldest entry is evicted when the buffer is full.
func (s *Store[T]) Add(v T) {
	at := v.At()
	if at.IsZero() {
		at = s.now()
	}
	s.buf[s.head] = record[T]{at: at, value: v}
	s.head = (s.head + 1) % len(s.buf)
	if s.size < len(s.buf) {
		s.size++
	}
}

// Count returns the number of journaled entries.
func (s *Store[T]) Count() int { return s.size }

// Clear resets the store to empty.
func (s *Store[T]) Clear() {
	s.head = 0
	s.size = 0
}

// All returns every entry in insertion order, oldest first.
func (s *Store[T]) All() []T {
	out := make([]T, s.size)
	start := (s.head - s.size + len(s.buf)) % len(s.buf)
	for i := 0; i < s.size; i++ {
		out[i] = s.buf[(start+i)%len(s.buf)].value
	}
	return out
}

// records returns the live records in insertion order.
func (s *Store[T]) records() []record[T] {
	out := make([]record[T], s.size)
	start := (s.head - s.size + len(s.buf)) % len(s.buf)
	for i := 0; i < s.size; i++ {
		out[i] = s.buf[(start+i)%len(s.buf)]
	}
	return out
}

// RangeByTime returns entries whose timestamp falls in [start, end],
// inclusive on both ends, oldest first.
func (s *Store[T]) RangeByTime(start, end time.Time) []T {
	var out []T
	for _, r := range s.records() {
		if r.at.Before(start) || r.at.After(end) {
			continue
		}
		out = append(out, r.value)
	}
	return out
}

// Last returns the most recent n entries, oldest first. n <= 0 returns nil;
// n larger than the stored count returns everything.
func (s *Store[T]) Last(n int) []T {
	if n <= 0 {
		return nil
	}
	all := s.All()
	if n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Timestamped pairs an entry with its effective journal timestamp. The two
// differ when Add stamped an entry that carried a zero At(): the entry
// itself is stored unmodified, so its own timestamp stays zero.
type Timestamped[T Entry] struct {
	At    time.Time
	Value T
}

// LastStamped returns the most recent n entries with their effective
// timestamps, oldest first. Time-span math over journaled entries must use
// these, not the entries' own timestamps.
func (s *Store[T]) LastStamped(n int) []Timestamped[T] {
	if n <= 0 {
		return nil
	}
	recs := s.records()
	if n < len(recs) {
		recs = recs[len(recs)-n:]
	}
	out := make([]Timestamped[T], len(recs))
	for i, r := range recs {
		out[i] = Timestamped[T]{At: r.at, Value: r.value}
	}
	return out
}

// RecentWindow returns entries no older than d, oldest first.
func (s *Store[T]) RecentWindow(d time.Duration) []T {
	cutoff := s.now().Add(-d)
	var out []T
	for _, r := range s.records() {
		if r.at.Before(cutoff) {
			continue
		}
		out = append(out, r.value)
	}
	return out
}

// Frequency counts occurrences of each distinct value at the given field
// path across all entries. Entries missing the path are skipped; the result
// is always a non-nil map.
func (s *Store[T]) Frequency(path string) map[string]int {
	out := make(map[string]int)
	for _, r := range s.records() {
		v, ok := fieldOf(r.value, path)
		if !ok {
			continue
		}
		out[fmt.Sprintf("%v", v)]++
	}
	return out
}

// ChangeRate returns the number of adjacent-sample value changes at the
// field path within the trailing window, divided by the window length in
// minutes. Fewer than two samples in the window yields 0.
func (s *Store[T]) ChangeRate(path string, window time.Duration) float64 {
	if window <= 0 {
		return 0
	}
	cutoff := s.now().Add(-window)
	var values []string
	for _, r := range s.records() {
		if r.at.Before(cutoff) {
			continue
		}
		v, ok := fieldOf(r.value, path)
		if !ok {
			continue
		}
		values = append(values, fmt.Sprintf("%v", v))
	}
	if len(values) < 2 {
		return 0
	}
	changes := 0
	for i := 1; i < len(values); i++ {
		if values[i] != values[i-1] {
			changes++
		}
	}
	return float64(changes) / window.Minutes()
}

// Trend compares the moving average of the field over a short trailing
// window against a long trailing window. Direction is stable unless the
// percent difference exceeds the significance threshold; Magnitude is the
// absolute percent difference. When either window holds no numeric samples
// the result is stable with zero averages.
func (s *Store[T]) Trend(path string, short, long time.Duration) model.TrendResult {
	now := s.now()
	shortAvg, shortN := s.windowAverage(path, now.Add(-short))
	longAvg, longN := s.windowAverage(path, now.Add(-long))

	result := model.TrendResult{
		Direction:        model.TrendStable,
		ShortTermAverage: shortAvg,
		LongTermAverage:  longAvg,
	}
	if shortN == 0 || longN == 0 || longAvg == 0 {
		return result
	}

	pct := (shortAvg - longAvg) / longAvg * 100
	result.Magnitude = pct
	if result.Magnitude < 0 {
		result.Magnitude = -result.Magnitude
	}
	switch {
	case pct > s.significancePct:
		result.Direction = model.TrendIncreasing
	case pct < -s.significancePct:
		result.Direction = model.TrendDecreasing
	}
	return result
}

// windowAverage averages numeric field values with timestamps >= cutoff.
func (s *Store[T]) windowAverage(path string, cutoff time.Time) (avg float64, n int) {
	var sum float64
	for _, r := range s.records() {
		if r.at.Before(cutoff) {
			continue
		}
		v, ok := fieldOf(r.value, path)
		if !ok {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			continue
		}
		sum += f
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}

// fieldOf resolves the path via the entry's Fielder hook, if present.
func fieldOf(v any, path string) (any, bool) {
	f, ok := v.(Fielder)
	if !ok {
		return nil, false
	}
	return f.Field(path)
}

// toFloat coerces common numeric types to float64.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}
