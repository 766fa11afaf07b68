// Package search filters the bound playlist by a substring query.
package search

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/desertthunder/ncmx/internal/models"
)

// Index holds the matches of a query over a playlist.
//
// Matches are playlist indices in playlist order. An empty query matches every track.
// Index is not safe for concurrent use.
type Index struct {
	playlist      *models.Playlist
	query         string
	includeArtist bool
	folder        cases.Caser
	matches       []int
}

// New returns an Index. When includeArtist is set, artist names are searched alongside titles.
func New(includeArtist bool) *Index {
	return &Index{includeArtist: includeArtist, folder: cases.Fold()}
}

// Bind swaps in pl and recomputes matches for the current query.
func (x *Index) Bind(pl *models.Playlist) {
	x.playlist = pl
	x.rebuild()
}

// SetQuery replaces the query and recomputes matches.
func (x *Index) SetQuery(q string) {
	x.query = q
	x.rebuild()
}

func (x *Index) Query() string { return x.query }

// Matches returns a copy of the matching playlist indices.
func (x *Index) Matches() []int {
	return append([]int(nil), x.matches...)
}

// View returns the matches without copying. The slice is replaced, never modified, when the query or playlist changes.
func (x *Index) View() []int { return x.matches }

// Len returns the number of matches.
func (x *Index) Len() int { return len(x.matches) }

// JumpToCurrent returns the position of playlist index current within the filtered list.
func (x *Index) JumpToCurrent(current int) (int, bool) {
	return Position(x.matches, current)
}

// NextMatch returns the first matching playlist index after from, wrapping to the start.
func (x *Index) NextMatch(from int) (int, bool) {
	return Next(x.matches, from)
}

// PrevMatch returns the last matching playlist index before from, wrapping to the end.
func (x *Index) PrevMatch(from int) (int, bool) {
	return Prev(x.matches, from)
}

// Position returns where playlist index i sits in the sorted matches.
func Position(matches []int, i int) (int, bool) {
	if i < 0 {
		return -1, false
	}
	p, found := slices.BinarySearch(matches, i)
	if !found {
		return -1, false
	}
	return p, true
}

// Next returns the first entry of the sorted matches greater than from, wrapping to the first.
func Next(matches []int, from int) (int, bool) {
	if len(matches) == 0 {
		return -1, false
	}
	p, found := slices.BinarySearch(matches, from)
	if found {
		p++
	}
	if p >= len(matches) {
		p = 0
	}
	return matches[p], true
}

// Prev returns the last entry of the sorted matches less than from, wrapping to the last.
func Prev(matches []int, from int) (int, bool) {
	if len(matches) == 0 {
		return -1, false
	}
	p, _ := slices.BinarySearch(matches, from)
	p--
	if p < 0 {
		p = len(matches) - 1
	}
	return matches[p], true
}

func (x *Index) rebuild() {
	n := x.playlist.Len()
	matches := make([]int, 0, n)
	needle := x.fold(strings.TrimSpace(x.query))
	for i := range n {
		t, _ := x.playlist.Track(i)
		if needle == "" || x.matchTrack(t, needle) {
			matches = append(matches, i)
		}
	}
	x.matches = matches
}

func (x *Index) matchTrack(t models.Track, needle string) bool {
	if strings.Contains(x.fold(t.Title), needle) {
		return true
	}
	if !x.includeArtist {
		return false
	}
	for _, a := range t.Artists {
		if strings.Contains(x.fold(a), needle) {
			return true
		}
	}
	return false
}

func (x *Index) fold(s string) string {
	return x.folder.String(s)
}
