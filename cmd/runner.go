package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ncmx/internal/services"
	"github.com/desertthunder/ncmx/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.Service
	api        *services.APIService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	newService func(*shared.Config) (services.Service, *services.APIService)
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	API        *services.APIService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	// NewService builds the catalogue client for a config. Setup uses it to verify a fresh cookie.
	NewService func(*shared.Config) (services.Service, *services.APIService)
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.API.TimeoutDuration()}
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		api:        opts.API,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		newService: opts.NewService,
	}
	if r.newService == nil {
		r.newService = r.buildService
	}
	if r.service == nil {
		r.service, r.api = r.newService(r.config)
	}
	return r
}

// buildService wires the proxy client and NetEase catalogue for config.
func (r *Runner) buildService(config *shared.Config) (services.Service, *services.APIService) {
	api := services.NewAPIService(config.API.BaseURL, r.httpClient, services.APIOptions{
		Cookie:            config.API.Cookie,
		RequestsPerSecond: config.API.RequestsPerSecond,
	})
	return services.NewNeteaseService(api), api
}

// SetLogger replaces the logger, e.g. to redirect output away from the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, favoritesCommand, playlistsCommand, lyricsCommand, playCommand, apiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// userID returns override, else the configured user, else the logged-in account's id.
func (r *Runner) userID(ctx context.Context, override string) (string, error) {
	if override != "" {
		return override, nil
	}
	if r.config.API.UserID != "" {
		return r.config.API.UserID, nil
	}
	account, err := r.service.Account(ctx)
	if err != nil {
		return "", err
	}
	r.logger.Debug("resolved user from account", "user", account.UserID, "nickname", account.Nickname)
	return account.UserID, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
