package waveform

import (
	"fmt"
	"math"
	"sort"
)

// ChannelID identifies a named analog or digital output. The empty string
// is reserved to mark an unassigned hardware slot.
type ChannelID string

// ChannelSet is a set of channel identifiers.
type ChannelSet map[ChannelID]struct{}

// NewChannelSet builds a set from the given identifiers.
func NewChannelSet(channels ...ChannelID) ChannelSet {
	set := make(ChannelSet, len(channels))
	for _, ch := range channels {
		set[ch] = struct{}{}
	}
	return set
}

// Contains reports whether ch is in the set.
func (s ChannelSet) Contains(ch ChannelID) bool {
	_, ok := s[ch]
	return ok
}

// IsSubsetOf reports whether every channel of s is in other.
func (s ChannelSet) IsSubsetOf(other ChannelSet) bool {
	for ch := range s {
		if !other.Contains(ch) {
			return false
		}
	}
	return true
}

// Intersects reports whether the sets share at least one channel.
func (s ChannelSet) Intersects(other ChannelSet) bool {
	for ch := range s {
		if other.Contains(ch) {
			return true
		}
	}
	return false
}

// Intersection returns the channels present in both sets.
func (s ChannelSet) Intersection(other ChannelSet) ChannelSet {
	out := make(ChannelSet)
	for ch := range s {
		if other.Contains(ch) {
			out[ch] = struct{}{}
		}
	}
	return out
}

// Union returns a new set holding the channels of both sets.
func (s ChannelSet) Union(other ChannelSet) ChannelSet {
	out := make(ChannelSet, len(s)+len(other))
	for ch := range s {
		out[ch] = struct{}{}
	}
	for ch := range other {
		out[ch] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold exactly the same channels.
func (s ChannelSet) Equal(other ChannelSet) bool {
	if len(s) != len(other) {
		return false
	}
	return s.IsSubsetOf(other)
}

// Sorted returns the channels in lexicographic order.
func (s ChannelSet) Sorted() []ChannelID {
	out := make([]ChannelID, 0, len(s))
	for ch := range s {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MeasurementWindow describes a named acquisition window relative to the
// start of the owning waveform.
type MeasurementWindow struct {
	Name   string
	Start  float64
	Length float64
}

// TimeType is an exact rational time value. Durations are compared exactly,
// never through floating point.
type TimeType struct {
	num int64
	den int64
}

// TimeFromFraction returns the reduced rational num/den. den must not be zero.
func TimeFromFraction(num, den int64) TimeType {
	if den == 0 {
		panic("waveform: zero denominator in TimeFromFraction")
	}
	if den < 0 {
		num, den = -num, -den
	}
	g := gcd(abs(num), den)
	if g > 1 {
		num /= g
		den /= g
	}
	return TimeType{num: num, den: den}
}

// TimeFromInt returns the integral time value n.
func TimeFromInt(n int64) TimeType {
	return TimeType{num: n, den: 1}
}

// TimeFromFloat approximates f on a nanosecond-resolution grid.
func TimeFromFloat(f float64) TimeType {
	const resolution = 1e9
	return TimeFromFraction(int64(math.Round(f*resolution)), int64(resolution))
}

// Float64 returns the floating point value of the time.
func (t TimeType) Float64() float64 {
	if t.den == 0 {
		return 0
	}
	return float64(t.num) / float64(t.den)
}

// Equal reports exact equality.
func (t TimeType) Equal(other TimeType) bool {
	return t.normalized() == other.normalized()
}

// Less reports whether t is strictly smaller than other.
func (t TimeType) Less(other TimeType) bool {
	a, b := t.normalized(), other.normalized()
	return a.num*b.den < b.num*a.den
}

// IsZero reports whether the time is zero.
func (t TimeType) IsZero() bool {
	return t.num == 0
}

// Mul returns the exact product of both times.
func (t TimeType) Mul(other TimeType) TimeType {
	a, b := t.normalized(), other.normalized()
	return TimeFromFraction(a.num*b.num, a.den*b.den)
}

// MulInt returns the exact product of the time and an integer.
func (t TimeType) MulInt(n int64) TimeType {
	a := t.normalized()
	return TimeFromFraction(a.num*n, a.den)
}

// Add returns the exact sum of both times.
func (t TimeType) Add(other TimeType) TimeType {
	a, b := t.normalized(), other.normalized()
	return TimeFromFraction(a.num*b.den+b.num*a.den, a.den*b.den)
}

// String renders the time as a fraction or integer.
func (t TimeType) String() string {
	n := t.normalized()
	if n.den == 1 {
		return fmt.Sprintf("%d", n.num)
	}
	return fmt.Sprintf("%d/%d", n.num, n.den)
}

// normalized guards against zero-value TimeType{} which has den == 0.
func (t TimeType) normalized() TimeType {
	if t.den == 0 {
		return TimeType{num: 0, den: 1}
	}
	return t
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(a int64) int64 {
	if a < 0 {
		return -a
	}
	return a
}
