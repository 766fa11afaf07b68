package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ncmx/internal/formatter"
	"github.com/desertthunder/ncmx/internal/models"
)

// Favorites prints or exports the liked songs, or the tracks of --playlist.
func (r *Runner) Favorites(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	pl, err := r.loadPlaylist(ctx, cmd.String("playlist"), cmd.String("user"))
	if err != nil {
		return err
	}

	if output != "" {
		if err := formatter.WriteExport(pl, format, output); err != nil {
			return err
		}
		r.logger.Info("exported playlist", "playlist", pl.Name(), "tracks", pl.Len(), "path", output)
		r.writePlain("✓ Exported %d tracks to %s\n", pl.Len(), output)
		return nil
	}

	data, err := formatter.Export(pl, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Playlists lists the user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	uid, err := r.userID(ctx, cmd.String("user"))
	if err != nil {
		return err
	}

	playlists, err := r.service.FetchPlaylists(ctx, uid)
	if err != nil {
		return fmt.Errorf("failed to fetch playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for _, p := range playlists {
		r.writePlain("%-12s %4d  %s\n", p.ID, p.TrackCount, p.Name)
	}
	return nil
}

// loadPlaylist fetches playlistID, or the user's liked songs when it is empty.
func (r *Runner) loadPlaylist(ctx context.Context, playlistID, user string) (*models.Playlist, error) {
	if playlistID != "" {
		pl, err := r.service.FetchPlaylist(ctx, playlistID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch playlist %s: %w", playlistID, err)
		}
		return pl, nil
	}

	uid, err := r.userID(ctx, user)
	if err != nil {
		return nil, err
	}
	pl, err := r.service.FetchFavorites(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch favorites: %w", err)
	}
	return pl, nil
}
