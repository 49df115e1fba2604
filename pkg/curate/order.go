package curate

import "sort"

// Order returns steps sorted by ascending rank. Steps of equal rank keep their
// relative order. The input slice is left untouched.
func Order(steps []Step) []Step {
	out := append([]Step(nil), steps...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rank() < out[j].Rank()
	})
	return out
}
