package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ncmx/internal/models"
	"github.com/desertthunder/ncmx/internal/playback"
	"github.com/desertthunder/ncmx/internal/services"
	"github.com/desertthunder/ncmx/internal/shared"
	tu "github.com/desertthunder/ncmx/internal/testing"
)

type fakeService struct {
	account    *services.Account
	accountErr error
	favorites  map[string]*models.Playlist
	playlists  []models.PlaylistSummary
	lyrics     *models.LyricTimeline
	calls      []string
}

func (f *fakeService) Name() string { return "fake" }

func (f *fakeService) Account(context.Context) (*services.Account, error) {
	f.calls = append(f.calls, "account")
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return f.account, nil
}

func (f *fakeService) FetchFavorites(_ context.Context, userID string) (*models.Playlist, error) {
	f.calls = append(f.calls, "favorites:"+userID)
	if pl, ok := f.favorites[userID]; ok {
		return pl, nil
	}
	return nil, shared.ErrPlaylistNotFound
}

func (f *fakeService) FetchPlaylists(_ context.Context, userID string) ([]models.PlaylistSummary, error) {
	f.calls = append(f.calls, "playlists:"+userID)
	return f.playlists, nil
}

func (f *fakeService) FetchPlaylist(_ context.Context, id string) (*models.Playlist, error) {
	f.calls = append(f.calls, "playlist:"+id)
	return models.NewPlaylist(id, "Road Trip", []models.Track{
		models.NewTrack("9", "Drive", []string{"R"}, "", time.Minute),
	}), nil
}

func (f *fakeService) FetchLyrics(context.Context, string) (*models.LyricTimeline, error) {
	if f.lyrics == nil {
		return models.EmptyTimeline(), nil
	}
	return f.lyrics, nil
}

func (f *fakeService) ResolveStreamURL(_ context.Context, id string) (string, error) {
	return tu.StreamURL(id), nil
}

func newFakeService() *fakeService {
	return &fakeService{
		account: &services.Account{UserID: "42", Nickname: "listener"},
		favorites: map[string]*models.Playlist{
			"42": models.NewPlaylist("favorites:42", "Liked Songs", []models.Track{
				models.NewTrack("1", "晴天", []string{"周杰伦"}, "叶惠美", 269*time.Second),
				models.NewTrack("2", "Numb", []string{"Linkin Park"}, "Meteora", 185*time.Second),
			}),
		},
		playlists: []models.PlaylistSummary{{ID: "100", Name: "Mix", TrackCount: 12}},
	}
}

func newTestRunner(svc *fakeService) (*Runner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Service: svc,
		Output:  out,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		NewService: func(*shared.Config) (services.Service, *services.APIService) {
			return svc, nil
		},
	})
	return r, out
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			svc := newFakeService()
			api := &services.APIService{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Service:    svc,
				API:        api,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.service != svc {
				t.Error("expected service to be set")
			}
			if runner.api != api {
				t.Error("expected api to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses configured timeout", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.API.Timeout = "3s"
			runner := NewRunner(RunnerOpts{Config: config})
			if runner.httpClient.Timeout != 3*time.Second {
				t.Errorf("expected 3s timeout, got %v", runner.httpClient.Timeout)
			}
		})

		t.Run("with nil service builds the NetEase client", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if _, ok := runner.service.(*services.NeteaseService); !ok {
				t.Errorf("expected NeteaseService, got %T", runner.service)
			}
			if runner.api == nil {
				t.Error("expected api client to be set")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "favorites", "playlists", "lyrics", "play", "api"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("userID", func(t *testing.T) {
		tt := []struct {
			name       string
			override   string
			configured string
			want       string
			calls      int
		}{
			{name: "flag wins", override: "7", configured: "8", want: "7"},
			{name: "config", configured: "8", want: "8"},
			{name: "account lookup", want: "42", calls: 1},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				svc := newFakeService()
				r, _ := newTestRunner(svc)
				r.config.API.UserID = tc.configured

				got, err := r.userID(t.Context(), tc.override)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tc.want {
					t.Errorf("expected %q, got %q", tc.want, got)
				}
				if len(svc.calls) != tc.calls {
					t.Errorf("expected %d service calls, got %v", tc.calls, svc.calls)
				}
			})
		}
	})
}

const curlFixture = `curl 'https://music.163.com/weapi/song/enhance/player/url/v1' \
  -H 'accept: */*' \
  -H 'user-agent: Mozilla/5.0' \
  -b 'NMTID=abc; MUSIC_U=secret-token; __csrf=deadbeef; _ga=GA1.2'`

func TestSetup(t *testing.T) {
	t.Run("creates config without curl", func(t *testing.T) {
		r, out := newTestRunner(newFakeService())
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := setupCommand(r).Run(t.Context(), []string{"setup", "--config", path}); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(out.String(), "Config ready") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("stores verified cookie", func(t *testing.T) {
		svc := newFakeService()
		r, _ := newTestRunner(svc)
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		curlPath := filepath.Join(dir, "curl.txt")
		tu.MustWriteFile(t, curlPath, curlFixture)

		if err := setupCommand(r).Run(t.Context(), []string{"setup", "--config", path, "--curl-file", curlPath}); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		config, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if !strings.Contains(config.API.Cookie, "MUSIC_U=secret-token") {
			t.Errorf("expected login cookie, got %q", config.API.Cookie)
		}
		if strings.Contains(config.API.Cookie, "_ga") {
			t.Errorf("expected tracking cookies to be dropped, got %q", config.API.Cookie)
		}
		if config.API.UserID != "42" {
			t.Errorf("expected user id from account, got %q", config.API.UserID)
		}
	})

	t.Run("rejected cookie is not saved", func(t *testing.T) {
		svc := newFakeService()
		svc.accountErr = fmt.Errorf("%w: code 301", shared.ErrNotAuthenticated)
		r, _ := newTestRunner(svc)
		path := filepath.Join(t.TempDir(), "config.toml")

		err := setupCommand(r).Run(t.Context(), []string{"setup", "--config", path, "--curl", curlFixture})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		config, err := shared.LoadConfig(path)
		if err != nil {
			t.Fatalf("failed to reload config: %v", err)
		}
		if config.API.Cookie != "" {
			t.Errorf("expected cookie not to be saved, got %q", config.API.Cookie)
		}
	})

	t.Run("errors", func(t *testing.T) {
		tt := []struct {
			name string
			args []string
			want error
		}{
			{name: "both curl flags", args: []string{"--curl", "x", "--curl-file", "y"}, want: shared.ErrInvalidArgument},
			{name: "missing login cookie", args: []string{"--curl", `curl 'https://x' -H 'Cookie: NMTID=1'`, "--no-verify"}, want: shared.ErrMissingCredentials},
			{name: "no headers", args: []string{"--curl", "curl https://x"}, want: shared.ErrInvalidInput},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				r, _ := newTestRunner(newFakeService())
				path := filepath.Join(t.TempDir(), "config.toml")
				args := append([]string{"setup", "--config", path}, tc.args...)

				if err := setupCommand(r).Run(t.Context(), args); !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
			})
		}
	})
}

func TestFavorites(t *testing.T) {
	tt := []struct {
		name   string
		args   []string
		checks []string
	}{
		{name: "text", args: nil, checks: []string{"Liked Songs", "周杰伦 - 晴天", "Linkin Park - Numb"}},
		{name: "csv", args: []string{"--format", "csv"}, checks: []string{"ID,Title,Artist,Album,Duration", "2,Numb,Linkin Park,Meteora,185"}},
		{name: "markdown", args: []string{"-f", "md"}, checks: []string{"1. 周杰伦 - 晴天 (叶惠美) [04:29]"}},
		{name: "json", args: []string{"--format", "json"}, checks: []string{`"name": "Liked Songs"`}},
		{name: "playlist", args: []string{"--playlist", "77"}, checks: []string{"Road Trip", "R - Drive"}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			r, out := newTestRunner(newFakeService())
			r.config.API.UserID = "42"

			args := append([]string{"favorites"}, tc.args...)
			if err := favoritesCommand(r).Run(t.Context(), args); err != nil {
				t.Fatalf("favorites failed: %v", err)
			}
			for _, want := range tc.checks {
				if !strings.Contains(out.String(), want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, out.String())
				}
			}
		})
	}

	t.Run("writes file", func(t *testing.T) {
		r, out := newTestRunner(newFakeService())
		r.config.API.UserID = "42"
		path := filepath.Join(t.TempDir(), "liked.csv")

		if err := favoritesCommand(r).Run(t.Context(), []string{"favorites", "-f", "csv", "-o", path}); err != nil {
			t.Fatalf("favorites failed: %v", err)
		}
		if !strings.Contains(tu.MustReadFile(t, path), "晴天") {
			t.Error("expected export file to contain tracks")
		}
		if !strings.Contains(out.String(), "Exported 2 tracks") {
			t.Errorf("unexpected output %q", out.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		r, _ := newTestRunner(newFakeService())
		r.config.API.UserID = "42"

		err := favoritesCommand(r).Run(t.Context(), []string{"favorites", "-f", "xml"})
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestPlaylists(t *testing.T) {
	r, out := newTestRunner(newFakeService())

	if err := playlistsCommand(r).Run(t.Context(), []string{"playlists", "--user", "5"}); err != nil {
		t.Fatalf("playlists failed: %v", err)
	}
	if !strings.Contains(out.String(), "Playlists (1)") || !strings.Contains(out.String(), "Mix") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	if err := playlistsCommand(r).Run(t.Context(), []string{"playlists", "--user", "5", "--json"}); err != nil {
		t.Fatalf("playlists failed: %v", err)
	}
	if !strings.Contains(out.String(), `"track_count": 12`) {
		t.Errorf("expected JSON output, got:\n%s", out.String())
	}
}

func TestLyrics(t *testing.T) {
	tl, err := models.NewLyricTimeline([]models.LyricLine{
		{At: 0, Text: "la"},
		{At: 61*time.Second + 250*time.Millisecond, Text: "la la", Translation: "啦啦"},
	})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}

	svc := newFakeService()
	svc.lyrics = tl
	r, out := newTestRunner(svc)

	if err := lyricsCommand(r).Run(t.Context(), []string{"lyrics", "186016"}); err != nil {
		t.Fatalf("lyrics failed: %v", err)
	}
	for _, want := range []string{"[00:00.00] la", "[01:01.25] la la", "啦啦"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("expected %q in output:\n%s", want, out.String())
		}
	}

	if err := lyricsCommand(r).Run(t.Context(), []string{"lyrics"}); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestPlayerOptions(t *testing.T) {
	config := shared.DefaultConfig()
	config.Player.PollInterval = "100ms"
	config.Player.DefaultVolume = 30

	opts, err := playerOptions(config, "shuffle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.Mode != playback.Shuffle {
		t.Errorf("expected shuffle, got %v", opts.Mode)
	}
	if opts.PollInterval != 100*time.Millisecond || opts.Volume != 30 {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.StreamRetries != config.Player.StreamRetries || opts.RetryBackoff != 500*time.Millisecond {
		t.Errorf("unexpected retry options %+v", opts)
	}

	if _, err := playerOptions(config, "backwards"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestAPIGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"code":200,"id":%q}`, r.URL.Query().Get("id"))
	}))
	defer srv.Close()

	out := &bytes.Buffer{}
	api := services.NewAPIService(srv.URL, srv.Client(), services.APIOptions{})
	r := NewRunner(RunnerOpts{Service: newFakeService(), API: api, Output: out, Logger: shared.NewLogger(&bytes.Buffer{})})

	if err := apiCommand(r).Run(t.Context(), []string{"api", "get", "-q", "id=186016", "--pretty=false", "/song/detail"}); err != nil {
		t.Fatalf("api get failed: %v", err)
	}
	if !strings.Contains(out.String(), `"id":"186016"`) {
		t.Errorf("unexpected output %q", out.String())
	}

	err := apiCommand(r).Run(t.Context(), []string{"api", "get", "-q", "novalue", "/x"})
	if !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestLRCStamp(t *testing.T) {
	tt := []struct {
		in   time.Duration
		want string
	}{
		{in: 0, want: "00:00.00"},
		{in: 1500 * time.Millisecond, want: "00:01.50"},
		{in: 3*time.Minute + 7*time.Second + 80*time.Millisecond, want: "03:07.08"},
	}

	for _, tc := range tt {
		if got := lrcStamp(tc.in); got != tc.want {
			t.Errorf("lrcStamp(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
