// Package ranking computes the time-decayed "hot" score used to order the
// front-page feed. The score is a pure function of a post's net vote score
// and its creation time, so it only needs to be recomputed on writes.
package ranking

import (
	"math"
	"time"
)

// epoch is the fixed reference instant the age term is measured from.
// Changing it shifts every hot score by the same amount, so relative
// ordering is unaffected; it exists only to keep the values small.
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// decaySeconds controls how fast recency outweighs vote magnitude: a post
// needs 10x the votes to out-rank one posted this many seconds later.
// Larger values let long-term popularity dominate recency.
const decaySeconds = 45000.0

// HotScore maps a net vote score and creation time to a sortable rank value.
//
// The vote term is logarithmic, so early votes move rank much more than late
// ones; the age term is linear, so newer posts win at equal score. A
// zero-score post collapses to the pure time term and ranks by recency alone.
func HotScore(score int, createdAt time.Time) float64 {
	order := math.Log10(math.Max(math.Abs(float64(score)), 1))

	var sign float64
	switch {
	case score > 0:
		sign = 1
	case score < 0:
		sign = -1
	}

	ageSeconds := createdAt.Sub(epoch).Seconds()
	return round7(sign*order + ageSeconds/decaySeconds)
}

// round7 keeps 7 decimal digits so identical inputs always store the exact
// same value regardless of which call site computed it.
func round7(v float64) float64 {
	return math.Round(v*1e7) / 1e7
}
