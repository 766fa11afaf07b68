package lyrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/shared"
)

// maxCursorSteps bounds a forward cursor walk before falling back to binary search.
const maxCursorSteps = 8

// Search returns the index of the last line whose timestamp is <= pos, or -1.
func Search(tl *models.LyricTimeline, pos time.Duration) int {
	n := tl.Len()
	return sort.Search(n, func(i int) bool { return tl.At(i) > pos }) - 1
}

// Synchronizer resolves the active lyric line for a playback position.
//
// Forward lookups advance a cursor from the previous answer; backwards jumps re-resolve with [Search].
// Results never depend on call order.
type Synchronizer struct {
	timeline *models.LyricTimeline
	cursor   int
	last     time.Duration
}

// NewSynchronizer creates a Synchronizer over tl. A nil timeline is treated as empty.
func NewSynchronizer(tl *models.LyricTimeline) *Synchronizer {
	s := &Synchronizer{}
	s.Reset(tl)
	return s
}

// Reset binds a new timeline and forgets the cursor.
func (s *Synchronizer) Reset(tl *models.LyricTimeline) {
	if tl == nil {
		tl = models.EmptyTimeline()
	}
	s.timeline = tl
	s.cursor = -1
	s.last = 0
}

// Timeline returns the bound timeline.
func (s *Synchronizer) Timeline() *models.LyricTimeline {
	return s.timeline
}

// ActiveIndex returns the index of the active line at pos, or -1 when pos precedes the first line or the timeline is
// empty.
func (s *Synchronizer) ActiveIndex(pos time.Duration) int {
	n := s.timeline.Len()
	if n == 0 {
		return -1
	}

	if pos < s.last {
		s.cursor = Search(s.timeline, pos)
	} else {
		for steps := 0; s.cursor+1 < n && s.timeline.At(s.cursor+1) <= pos; steps++ {
			if steps == maxCursorSteps {
				s.cursor = Search(s.timeline, pos)
				break
			}
			s.cursor++
		}
	}

	s.last = pos
	return s.cursor
}

// ActiveLine returns the active line at pos.
func (s *Synchronizer) ActiveLine(pos time.Duration) (models.LyricLine, bool) {
	return s.timeline.Line(s.ActiveIndex(pos))
}

// SeekTargetFor returns the timestamp of line i, used to jump playback to that line.
func (s *Synchronizer) SeekTargetFor(i int) (time.Duration, error) {
	line, ok := s.timeline.Line(i)
	if !ok {
		return 0, fmt.Errorf("%w: lyric line %d of %d", shared.ErrInvalidIndex, i, s.timeline.Len())
	}
	return line.At, nil
}
