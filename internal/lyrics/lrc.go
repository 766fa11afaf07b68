// Package lyrics parses LRC lyric text and maps playback positions to lyric lines.
package lyrics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ncmx/internal/models"
)

// timeTag matches a single leading [mm:ss], [mm:ss.x], [mm:ss.xx] or [mm:ss.xxx] tag.
var timeTag = regexp.MustCompile(`^\[(\d{1,3}):(\d{1,2})(?:[.:](\d{1,3}))?\]`)

// ParseLRC parses LRC text into a timeline.
//
// Lines may carry several time tags. Metadata tags ([ar:], [ti:], [by:], ...) and untagged lines are skipped.
// Lines sharing a timestamp are merged: the first non-empty text is kept and the next one becomes its translation,
// matching how bilingual LRC files are usually laid out.
func ParseLRC(lrc string) *models.LyricTimeline {
	tl, _ := models.NewLyricTimeline(mergeLines(parseLines(lrc)))
	return tl
}

// ParseLRCWithTranslation parses an original and a translated LRC and attaches each translated line to the original
// line with the same timestamp.
func ParseLRCWithTranslation(lrc, tlrc string) *models.LyricTimeline {
	lines := mergeLines(parseLines(lrc))
	if strings.TrimSpace(tlrc) != "" {
		translated := make(map[time.Duration]string)
		for _, l := range mergeLines(parseLines(tlrc)) {
			if l.Text != "" {
				translated[l.At] = l.Text
			}
		}
		for i := range lines {
			if tr, ok := translated[lines[i].At]; ok {
				lines[i].Translation = tr
			}
		}
	}
	tl, _ := models.NewLyricTimeline(lines)
	return tl
}

func parseLines(lrc string) []models.LyricLine {
	var result []models.LyricLine

	for _, line := range strings.Split(lrc, "\n") {
		rest := strings.TrimSpace(line)

		var stamps []time.Duration
		for {
			m := timeTag.FindStringSubmatch(rest)
			if m == nil {
				break
			}
			stamps = append(stamps, tagOffset(m[1], m[2], m[3]))
			rest = rest[len(m[0]):]
		}

		text := strings.TrimSpace(rest)
		for _, at := range stamps {
			result = append(result, models.LyricLine{At: at, Text: text})
		}
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].At < result[j].At })
	return result
}

func tagOffset(min, sec, frac string) time.Duration {
	m, _ := strconv.Atoi(min)
	s, _ := strconv.Atoi(sec)
	ms := 0
	if frac != "" {
		ms, _ = strconv.Atoi(frac)
		switch len(frac) {
		case 1:
			ms *= 100
		case 2:
			ms *= 10
		}
	}
	return time.Duration(m)*time.Minute + time.Duration(s)*time.Second + time.Duration(ms)*time.Millisecond
}

// mergeLines collapses sorted lines with identical timestamps.
func mergeLines(sorted []models.LyricLine) []models.LyricLine {
	var out []models.LyricLine
	for _, l := range sorted {
		if n := len(out); n > 0 && out[n-1].At == l.At {
			prev := &out[n-1]
			switch {
			case prev.Text == "":
				prev.Text = l.Text
			case prev.Translation == "" && l.Text != "":
				prev.Translation = l.Text
			}
			continue
		}
		out = append(out, l)
	}
	return out
}
