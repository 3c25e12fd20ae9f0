// Package leveling maps accumulated experience points to a discrete level
// and a fractional progress value. All functions are pure and total.
package leveling

import "math"

const (
	// Base controls how fast successive levels get more expensive.
	Base = 2.0
	// Scale is the experience equivalent of one base unit.
	Scale = 100.0
	// ExpPerUpvote is the experience an author earns per upvote on their
	// content. Named here so call sites never re-derive it.
	ExpPerUpvote = 100
)

// ExpForLevel returns the total experience required to reach level l.
func ExpForLevel(l int) int {
	if l <= 0 {
		return 0
	}
	return int(math.Round((math.Pow(Base, float64(l)) - 1) * Scale))
}

// Level returns the level for the given experience. The float log can land
// one step off at exact level boundaries, so the result is nudged until it
// agrees with ExpForLevel.
func Level(exp int) int {
	if exp <= 0 {
		return 0
	}
	l := int(math.Floor(math.Log(float64(exp)/Scale+1) / math.Log(Base)))
	for l > 0 && ExpForLevel(l) > exp {
		l--
	}
	for ExpForLevel(l+1) <= exp {
		l++
	}
	return l
}

// ProgressToNext returns the fraction of the way from the current level to
// the next, clamped to [0, 1]. A degenerate span counts as complete.
func ProgressToNext(exp int) float64 {
	if exp < 0 {
		exp = 0
	}
	l := Level(exp)
	floor := ExpForLevel(l)
	ceil := ExpForLevel(l + 1)
	span := ceil - floor
	if span <= 0 {
		return 1
	}
	p := float64(exp-floor) / float64(span)
	return math.Min(1, math.Max(0, p))
}
