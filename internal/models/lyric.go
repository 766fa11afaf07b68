package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/ncmx/internal/shared"
)

// LyricLine is a single lyric line tagged with its offset from track start.
type LyricLine struct {
	At          time.Duration `json:"at"`
	Text        string        `json:"text"`
	Translation string        `json:"translation,omitempty"`
}

// LyricTimeline is an immutable sequence of lines, strictly increasing by timestamp.
type LyricTimeline struct {
	lines []LyricLine
}

var emptyTimeline = &LyricTimeline{}

// NewLyricTimeline validates ordering and returns a timeline holding a copy of lines.
func NewLyricTimeline(lines []LyricLine) (*LyricTimeline, error) {
	for i := 1; i < len(lines); i++ {
		if lines[i].At <= lines[i-1].At {
			return nil, fmt.Errorf("%w: line %d at %v follows %v", shared.ErrInvalidTimeline, i, lines[i].At, lines[i-1].At)
		}
	}
	if len(lines) > 0 && lines[0].At < 0 {
		return nil, fmt.Errorf("%w: negative timestamp %v", shared.ErrInvalidTimeline, lines[0].At)
	}
	return &LyricTimeline{lines: append([]LyricLine(nil), lines...)}, nil
}

// EmptyTimeline returns the shared timeline with no lines.
func EmptyTimeline() *LyricTimeline { return emptyTimeline }

// Len returns the number of lines.
func (tl *LyricTimeline) Len() int {
	if tl == nil {
		return 0
	}
	return len(tl.lines)
}

// Line returns the line at index i.
func (tl *LyricTimeline) Line(i int) (LyricLine, bool) {
	if i < 0 || i >= tl.Len() {
		return LyricLine{}, false
	}
	return tl.lines[i], true
}

// At returns the timestamp of line i. The caller must ensure i is in range.
func (tl *LyricTimeline) At(i int) time.Duration {
	return tl.lines[i].At
}

// Lines returns a copy of all lines.
func (tl *LyricTimeline) Lines() []LyricLine {
	if tl == nil {
		return nil
	}
	return append([]LyricLine(nil), tl.lines...)
}
