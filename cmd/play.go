package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ncmx/internal/backend"
	"github.com/desertthunder/ncmx/internal/playback"
	"github.com/desertthunder/ncmx/internal/player"
	"github.com/desertthunder/ncmx/internal/server"
	"github.com/desertthunder/ncmx/internal/shared"
	"github.com/desertthunder/ncmx/internal/ui"
)

// Play launches the player TUI over the liked songs or --playlist.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	if r.service == nil {
		return fmt.Errorf("%w: music service not initialized", shared.ErrServiceUnavailable)
	}

	mode := r.config.Player.DefaultMode
	if m := cmd.String("mode"); m != "" {
		mode = m
	}
	opts, err := playerOptions(r.config, mode)
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.Path)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if lvl, err := shared.ParseLogLevel(r.config.Log.Level); err == nil {
		shared.SetLogLevel(fileLogger, lvl)
	}
	r.SetLogger(fileLogger)
	opts.Logger = fileLogger

	pl, err := r.loadPlaylist(ctx, cmd.String("playlist"), "")
	if err != nil {
		return err
	}
	r.logger.Info("loaded playlist", "playlist", pl.Name(), "tracks", pl.Len())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	mpv := backend.NewMPV(backend.MPVOptions{
		Path:   r.config.Backend.MPVPath,
		Socket: r.config.Backend.SocketPath,
		Logger: fileLogger,
	})
	if err := mpv.Start(ctx); err != nil {
		return err
	}
	defer mpv.Close()

	p := player.New(mpv, r.service, opts)
	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(ctx) }()

	if r.config.Control.Enabled || cmd.Bool("control") {
		go r.serveControl(ctx, p, fileLogger)
	}

	program := tea.NewProgram(ui.NewModel(ctx, p, pl), tea.WithAltScreen(), tea.WithContext(ctx))
	_, tuiErr := program.Run()

	cancel()
	if err := <-runErr; err != nil {
		r.logger.Error("player stopped with error", "error", err)
	}

	if tuiErr != nil && !errors.Is(tuiErr, tea.ErrProgramKilled) {
		return fmt.Errorf("error running TUI: %w", tuiErr)
	}
	return nil
}

func (r *Runner) serveControl(ctx context.Context, p *player.Coordinator, logger *log.Logger) {
	logger = shared.WithLogger(logger, "component", "control")

	router := server.NewBasicRouter()
	router.Use(server.Recover(logger), server.Logging(logger))
	router.Handler(server.NewControlHandler(p, 0))

	if err := server.Serve(ctx, r.config.Control.Address(), router, logger); err != nil {
		logger.Error("control server failed", "error", err)
	}
}

// playerOptions maps the [player] config section onto coordinator options.
func playerOptions(config *shared.Config, mode string) (player.Options, error) {
	m, err := playback.ParseMode(mode)
	if err != nil {
		return player.Options{}, err
	}

	pc := config.Player
	return player.Options{
		Mode:          m,
		Volume:        pc.DefaultVolume,
		PollInterval:  pc.PollIntervalDuration(),
		SeekTolerance: pc.SeekToleranceDuration(),
		StreamRetries: pc.StreamRetries,
		RetryBackoff:  pc.RetryBackoffDuration(),
		SearchArtists: pc.SearchArtists,
	}, nil
}
