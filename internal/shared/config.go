package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API     APIConfig     `toml:"api"`
	Player  PlayerConfig  `toml:"player"`
	Backend BackendConfig `toml:"backend"`
	Control ControlConfig `toml:"control"`
	Log     LogConfig     `toml:"log"`
}

// APIConfig contains the music service proxy settings.
type APIConfig struct {
	BaseURL           string  `toml:"base_url"`
	Cookie            string  `toml:"cookie"`
	UserID            string  `toml:"user_id"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Timeout           string  `toml:"timeout"`
}

// PlayerConfig contains playback coordinator tuning.
type PlayerConfig struct {
	PollInterval  string `toml:"poll_interval"`
	SeekTolerance string `toml:"seek_tolerance"`
	StreamRetries int    `toml:"stream_retries"`
	RetryBackoff  string `toml:"retry_backoff"`
	DefaultVolume int    `toml:"default_volume"`
	DefaultMode   string `toml:"default_mode"`
	SearchArtists bool   `toml:"search_artists"`
}

// BackendConfig contains media backend settings.
type BackendConfig struct {
	MPVPath    string `toml:"mpv_path"`
	SocketPath string `toml:"socket_path"`
}

// ControlConfig contains the optional remote-control HTTP server settings.
type ControlConfig struct {
	Enabled bool   `toml:"enabled"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

// LogConfig contains log output settings.
type LogConfig struct {
	Path  string `toml:"path"`
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes the config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks durations and numeric ranges.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"api.timeout":           c.API.Timeout,
		"player.poll_interval":  c.Player.PollInterval,
		"player.seek_tolerance": c.Player.SeekTolerance,
		"player.retry_backoff":  c.Player.RetryBackoff,
	} {
		if _, err := parseDuration(raw); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}

	if c.Player.DefaultVolume < 0 || c.Player.DefaultVolume > 100 {
		return fmt.Errorf("%w: player.default_volume must be within 0-100, got %d", ErrInvalidConfig, c.Player.DefaultVolume)
	}
	if c.Player.StreamRetries < 0 {
		return fmt.Errorf("%w: player.stream_retries must not be negative", ErrInvalidConfig)
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: api.requests_per_second must not be negative", ErrInvalidConfig)
	}
	return nil
}

// TimeoutDuration returns the parsed API request timeout.
func (c APIConfig) TimeoutDuration() time.Duration {
	d, _ := parseDuration(c.Timeout)
	return d
}

// PollIntervalDuration returns the parsed position tracker cadence.
func (c PlayerConfig) PollIntervalDuration() time.Duration {
	d, _ := parseDuration(c.PollInterval)
	return d
}

// SeekToleranceDuration returns the parsed seek reconciliation tolerance.
func (c PlayerConfig) SeekToleranceDuration() time.Duration {
	d, _ := parseDuration(c.SeekTolerance)
	return d
}

// RetryBackoffDuration returns the parsed base backoff for stream resolution retries.
func (c PlayerConfig) RetryBackoffDuration() time.Duration {
	d, _ := parseDuration(c.RetryBackoff)
	return d
}

// Address returns the host:port the control server listens on.
func (c ControlConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return d, nil
}
