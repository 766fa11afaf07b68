// package formatter renders playlists for export (JSON, CSV, Markdown, plain text) and formats playback clocks.
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/shared"
)

// Format names accepted by [Export].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "md"
	FormatText     = "txt"
)

const unknownClock = "--:--"

type trackJSON struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Artists  []string `json:"artists"`
	Album    string   `json:"album,omitempty"`
	Duration string   `json:"duration"`
}

type playlistJSON struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Tracks []trackJSON `json:"tracks"`
}

// Export renders pl in the named format.
func Export(pl *models.Playlist, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return ExportToJSON(pl)
	case FormatCSV:
		return ExportToCSV(pl)
	case FormatMarkdown, "markdown":
		return ExportToMarkdown(pl)
	case FormatText, "text":
		return ExportToText(pl)
	}
	return nil, fmt.Errorf("%w: unknown format %q (want json, csv, md or txt)", shared.ErrInvalidFlag, format)
}

// WriteExport renders pl in format and writes it to path.
func WriteExport(pl *models.Playlist, format, path string) error {
	data, err := Export(pl, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

// ExportToJSON renders the playlist and its tracks as indented JSON.
func ExportToJSON(pl *models.Playlist) ([]byte, error) {
	out := playlistJSON{ID: pl.ID(), Name: pl.Name(), Tracks: make([]trackJSON, 0, pl.Len())}
	for _, t := range pl.Tracks() {
		artists := t.Artists
		if artists == nil {
			artists = []string{}
		}
		out.Tracks = append(out.Tracks, trackJSON{
			ID:       t.ID,
			Title:    t.Title,
			Artists:  artists,
			Album:    t.Album,
			Duration: FormatDuration(t.Duration),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders one row per track with columns: ID, Title, Artist, Album, Duration (seconds)
func ExportToCSV(pl *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range pl.Tracks() {
		record := []string{
			track.ID,
			track.Title,
			track.Artist(),
			track.Album,
			strconv.Itoa(int(track.Duration / time.Second)),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a numbered track list under the playlist name
func ExportToMarkdown(pl *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", pl.Name())
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", pl.Len())

	buf.WriteString("## Tracks\n\n")
	for i, track := range pl.Tracks() {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, track.Artist(), track.Title, albumPart, FormatDuration(track.Duration))
	}

	return buf.Bytes(), nil
}

// ExportToText renders the playlist as plain text
func ExportToText(pl *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", pl.Name())
	fmt.Fprintf(&buf, "Tracks: %d\n\n", pl.Len())

	for i, track := range pl.Tracks() {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, track.Artist(), track.Title)
	}

	return buf.Bytes(), nil
}

// FormatDuration renders d as mm:ss. Negative durations render as "--:--".
//
// Minutes are not wrapped into hours, so a 75 minute mix renders as 75:00.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		return unknownClock
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// FormatProgress renders the playback bar label "pos/total", or "--:--/--:--" when the duration is unknown.
func FormatProgress(pos, total time.Duration) string {
	if total <= 0 {
		return unknownClock + "/" + unknownClock
	}
	return FormatDuration(pos) + "/" + FormatDuration(total)
}

// ParseClock parses "mm:ss", "hh:mm:ss", plain seconds ("90") or a Go duration ("1m30s").
func ParseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty time", shared.ErrInvalidArgument)
	}

	if strings.Contains(s, ":") {
		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, fmt.Errorf("%w: invalid time %q", shared.ErrInvalidArgument, s)
		}
		var total time.Duration
		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("%w: invalid time %q", shared.ErrInvalidArgument, s)
			}
			total = total*60 + time.Duration(n)*time.Second
		}
		return total, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("%w: negative time %q", shared.ErrInvalidArgument, s)
		}
		return time.Duration(n) * time.Second, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time %q", shared.ErrInvalidArgument, s)
	}
	return d, nil
}
