package playback

// Advance returns the index that follows index in direction dir under mode, for a playlist of length n.
//
//	Single        none                      none
//	SingleRepeat  index                     index
//	ListRepeat    (index+1) mod n           (index-1+n) mod n
//	Shuffle       next shuffle position     previous shuffle position (both wrap)
//
// ok is false when there is no successor, the playlist is empty, or index is out of range.
// order is only consulted in Shuffle mode and must be a permutation of [0, n).
func Advance(mode Mode, dir Direction, index, n int, order ShuffleOrder) (next int, ok bool) {
	if n <= 0 || index < 0 || index >= n {
		return -1, false
	}

	step := 1
	if dir == Backward {
		step = -1
	}

	switch mode {
	case Single:
		return -1, false
	case SingleRepeat:
		return index, true
	case ListRepeat:
		return wrap(index+step, n), true
	case Shuffle:
		p := order.PositionOf(index)
		if order.Len() != n || p < 0 {
			return wrap(index+step, n), true
		}
		return order.At(wrap(p+step, n)), true
	}
	return -1, false
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
