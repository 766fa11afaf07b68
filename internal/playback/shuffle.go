package playback

import "math/rand/v2"

// ShuffleOrder is a permutation of playlist indices with its inverse for O(1) position lookups.
type ShuffleOrder struct {
	order []int
	pos   []int
}

// NewShuffleOrder returns a random permutation of [0, n) with pinned placed at position 0.
//
// A pinned value outside [0, n) leaves the permutation unpinned.
func NewShuffleOrder(n, pinned int, rng *rand.Rand) ShuffleOrder {
	order := rng.Perm(n)
	if pinned >= 0 && pinned < n {
		for i, v := range order {
			if v == pinned {
				order[0], order[i] = order[i], order[0]
				break
			}
		}
	}
	return newShuffleOrder(order)
}

func newShuffleOrder(order []int) ShuffleOrder {
	pos := make([]int, len(order))
	for i, v := range order {
		pos[v] = i
	}
	return ShuffleOrder{order: order, pos: pos}
}

// Len returns the number of indices in the permutation.
func (s ShuffleOrder) Len() int { return len(s.order) }

// At returns the playlist index at shuffle position p.
func (s ShuffleOrder) At(p int) int { return s.order[p] }

// PositionOf returns the shuffle position holding playlist index i, or -1.
func (s ShuffleOrder) PositionOf(i int) int {
	if i < 0 || i >= len(s.pos) {
		return -1
	}
	return s.pos[i]
}

// Order returns a copy of the permutation.
func (s ShuffleOrder) Order() []int {
	return append([]int(nil), s.order...)
}
