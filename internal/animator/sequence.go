package animator

import (
	"math/rand/v2"
	"slices"
)

const (
	minPreviewFrames = 3
	maxPreviewFrames = 6
)

// buildSequence returns the subjects to show: a shuffled preview drawn from
// the pool, then every final in order. Without a hint the pool is the finals
// themselves; an explicitly empty hint yields the finals alone.
func buildSequence[T comparable](hint []T, hasHint bool, finals []T, rng *rand.Rand) []T {
	if hasHint && len(hint) == 0 {
		return slices.Clone(finals)
	}

	var base []T
	seen := make(map[T]struct{}, len(hint)+len(finals))
	for _, candidates := range [][]T{hint, finals} {
		for _, v := range candidates {
			if _, dup := seen[v]; dup {
				continue
			}
			seen[v] = struct{}{}
			base = append(base, v)
		}
	}
	if len(base) == 0 {
		return slices.Clone(finals)
	}

	rng.Shuffle(len(base), func(i, j int) { base[i], base[j] = base[j], base[i] })
	preview := min(maxPreviewFrames, max(minPreviewFrames, len(base)))

	frames := make([]T, 0, preview+len(finals))
	for i := 0; i < preview; i++ {
		frames = append(frames, base[i%len(base)])
	}
	return append(frames, finals...)
}
