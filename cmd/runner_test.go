package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/ytplay/internal/models"
	"github.com/desertthunder/ytplay/internal/player"
	"github.com/desertthunder/ytplay/internal/repositories"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	tu "github.com/desertthunder/ytplay/internal/testing"
	"github.com/urfave/cli/v3"
)

type fakeCatalog struct {
	tracks   []models.Track
	playlist *services.Playlist
	err      error
	queries  []string
}

func (f *fakeCatalog) Search(_ context.Context, query string, limit int) ([]models.Track, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if limit > 0 && len(f.tracks) > limit {
		return f.tracks[:limit], nil
	}
	return f.tracks, nil
}

func (f *fakeCatalog) Playlist(_ context.Context, id string) (*services.Playlist, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.playlist == nil || f.playlist.ID != id {
		return nil, shared.ErrPlaylistNotFound
	}
	return f.playlist, nil
}

// newTestRunner returns a runner backed by a temp database that never touches the real keyring.
func newTestRunner(t *testing.T, output *bytes.Buffer) *Runner {
	t.Helper()
	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "test.db")

	r := NewRunner(RunnerOpts{
		Config:  config,
		Logger:  shared.NewLogger(&bytes.Buffer{}),
		Output:  output,
		Catalog: &fakeCatalog{},
	})
	r.loadToken = func() (string, error) { return "", nil }
	r.saveToken = func(string) error { return errors.New("keyring disabled in tests") }
	return r
}

func seedPlays(t *testing.T, r *Runner, tracks ...models.Track) {
	t.Helper()
	db, err := r.openDatabase()
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	history := repositories.NewPlayHistoryRepository(db)
	stats := repositories.NewStatsRepository(db)
	ledger := repositories.NewLedgerRepository(db)
	for _, track := range tracks {
		if err := history.AddToHistory(ctx, track); err != nil {
			t.Fatalf("AddToHistory failed: %v", err)
		}
		if err := stats.RecordPlay(ctx, track); err != nil {
			t.Fatalf("RecordPlay failed: %v", err)
		}
		if _, err := ledger.RecordPlay(ctx, localUserID, track.Seconds()); err != nil {
			t.Fatalf("ledger RecordPlay failed: %v", err)
		}
	}
}

func run(t *testing.T, cmd *cli.Command, args ...string) error {
	t.Helper()
	return cmd.Run(context.Background(), append([]string{cmd.Name}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			catalog := &fakeCatalog{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Catalog:    catalog,
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
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})

		t.Run("with nil dependencies uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
			if _, ok := runner.catalog.(*services.CatalogService); !ok {
				t.Errorf("expected a catalog service, got %T", runner.catalog)
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

		want := []string{"setup", "play", "serve", "search", "history", "stats", "achievements"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if cmd.Name != want[i] {
				t.Errorf("command %d: expected %q, got %q", i, want[i], cmd.Name)
			}
		}
	})

	t.Run("apiToken", func(t *testing.T) {
		t.Run("config wins over keyring", func(t *testing.T) {
			runner := newTestRunner(t, &bytes.Buffer{})
			runner.config.API.Token = "from-config"
			runner.loadToken = func() (string, error) { return "from-keyring", nil }

			if got := runner.apiToken(); got != "from-config" {
				t.Errorf("expected config token, got %q", got)
			}
		})

		t.Run("falls back to keyring", func(t *testing.T) {
			runner := newTestRunner(t, &bytes.Buffer{})
			runner.loadToken = func() (string, error) { return "from-keyring", nil }

			if got := runner.apiToken(); got != "from-keyring" {
				t.Errorf("expected keyring token, got %q", got)
			}
		})

		t.Run("keyring errors yield no token", func(t *testing.T) {
			runner := newTestRunner(t, &bytes.Buffer{})
			runner.loadToken = func() (string, error) { return "", errors.New("no dbus") }

			if got := runner.apiToken(); got != "" {
				t.Errorf("expected empty token, got %q", got)
			}
			if runner.apiService(context.Background()) != nil {
				t.Error("expected no API service without a token")
			}
		})
	})
}

func TestEngagementOptions(t *testing.T) {
	ctx := context.Background()

	t.Run("local only", func(t *testing.T) {
		r := newTestRunner(t, &bytes.Buffer{})
		db, err := r.openDatabase()
		if err != nil {
			t.Fatalf("openDatabase failed: %v", err)
		}
		defer db.Close()

		opts := r.engagementOptions(ctx, db, r.logger)
		if len(opts.History) != 1 || len(opts.Plays) != 1 {
			t.Errorf("expected one local history and stats sink, got %d/%d", len(opts.History), len(opts.Plays))
		}
		if _, ok := opts.Gamifier.(*repositories.LedgerRepository); !ok {
			t.Errorf("expected local ledger, got %T", opts.Gamifier)
		}
		if opts.UserID != localUserID {
			t.Errorf("expected local user, got %q", opts.UserID)
		}
	})

	t.Run("hosted API and last.fm", func(t *testing.T) {
		r := newTestRunner(t, &bytes.Buffer{})
		r.config.API.Token = "token"
		r.config.API.UserID = "user-1"
		r.config.LastFM = shared.LastFMConfig{APIKey: "k", APISecret: "s", SessionKey: "sk"}

		opts := r.engagementOptions(ctx, nil, r.logger)
		if len(opts.History) != 1 {
			t.Errorf("expected hosted history only, got %d", len(opts.History))
		}
		if len(opts.Plays) != 2 {
			t.Errorf("expected hosted stats and last.fm, got %d", len(opts.Plays))
		}
		if _, ok := opts.Gamifier.(*services.GamificationClient); !ok {
			t.Errorf("expected hosted gamification, got %T", opts.Gamifier)
		}
		if opts.UserID != "user-1" {
			t.Errorf("expected configured user, got %q", opts.UserID)
		}
	})

	t.Run("token without user keeps the local ledger", func(t *testing.T) {
		r := newTestRunner(t, &bytes.Buffer{})
		r.config.API.Token = "token"
		db, err := r.openDatabase()
		if err != nil {
			t.Fatalf("openDatabase failed: %v", err)
		}
		defer db.Close()

		opts := r.engagementOptions(ctx, db, r.logger)
		if len(opts.History) != 2 {
			t.Errorf("expected local and hosted history, got %d", len(opts.History))
		}
		if _, ok := opts.Gamifier.(*repositories.LedgerRepository); !ok {
			t.Errorf("expected local ledger, got %T", opts.Gamifier)
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("creates config and database", func(t *testing.T) {
		output := &bytes.Buffer{}
		r := newTestRunner(t, output)
		r.configPath = filepath.Join(t.TempDir(), "nested", "config.toml")

		if err := run(t, setupCommand(r)); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		tu.AssertFileExists(t, r.configPath)
		tu.AssertFileExists(t, r.config.Database.Path)
		if !strings.Contains(output.String(), "Database ready") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("saves token", func(t *testing.T) {
		output := &bytes.Buffer{}
		r := newTestRunner(t, output)
		r.configPath = filepath.Join(t.TempDir(), "config.toml")

		var saved string
		r.saveToken = func(token string) error {
			saved = token
			return nil
		}

		if err := run(t, setupCommand(r), "--token", "secret"); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if saved != "secret" {
			t.Errorf("expected token to be saved, got %q", saved)
		}
		if !strings.Contains(output.String(), "API token saved") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("token failure", func(t *testing.T) {
		r := newTestRunner(t, &bytes.Buffer{})
		r.configPath = filepath.Join(t.TempDir(), "config.toml")

		err := run(t, setupCommand(r), "--token", "secret")
		if err == nil || !strings.Contains(err.Error(), "failed to save token") {
			t.Errorf("expected token error, got %v", err)
		}
	})
}

func TestLibraryCommands(t *testing.T) {
	tracks := []models.Track{
		{ID: "a", Title: "Harbor Lights", Artist: "The Tides", Duration: "3:00"},
		{ID: "b", Title: "Desert Road", Artist: "Dune", Duration: "4:00"},
	}

	t.Run("history text", func(t *testing.T) {
		output := &bytes.Buffer{}
		r := newTestRunner(t, output)
		seedPlays(t, r, tracks...)

		if err := run(t, historyCommand(r)); err != nil {
			t.Fatalf("history failed: %v", err)
		}
		for _, want := range []string{"Recently Played", "Harbor Lights", "Desert Road"} {
			if !strings.Contains(output.String(), want) {
				t.Errorf("output missing %q:\n%s", want, output.String())
			}
		}
	})

	t.Run("history filter", func(t *testing.T) {
		output := &bytes.Buffer{}
		r := newTestRunner(t, output)
		seedPlays(t, r, tracks...)

		if err := run(t, historyCommand(r), "--filter", "dsrt", "--format", "json"); err != nil {
			t.Fatalf("history failed: %v", err)
		}

		var records []models.PlayRecord
		if err := json.Unmarshal(output.Bytes(), &records); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(records) != 1 || records[0].Track.ID != "b" {
			t.Errorf("expected only Desert Road, got %+v", records)
		}
	})

	t.Run("history rejects unknown format", func(t *testing.T) {
		r := newTestRunner(t, &bytes.Buffer{})
		err := run(t, historyCommand(r), "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("stats csv", func(t *testing.T) {
		output := &bytes.Buffer{}
		r := newTestRunner(t, output)
		seedPlays(t, r, tracks[0], tracks[0], tracks[1])

		if err := run(t, statsCommand(r), "--format", "csv"); err != nil {
			t.Fatalf("stats failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and two rows, got %q", output.String())
		}
		if !strings.HasPrefix(lines[1], "a,Harbor Lights,The Tides,2,360,") {
			t.Errorf("expected most played first, got %q", lines[1])
		}
	})

	t.Run("achievements json", func(t *testing.T) {
		output := &bytes.Buffer{}
		r := newTestRunner(t, output)
		seedPlays(t, r, tracks...)

		if err := run(t, achievementsCommand(r), "--format", "json"); err != nil {
			t.Fatalf("achievements failed: %v", err)
		}

		var decoded struct {
			Ledger       models.Ledger        `json:"ledger"`
			Achievements []models.Achievement `json:"achievements"`
		}
		if err := json.Unmarshal(output.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Ledger.Plays != 2 {
			t.Errorf("expected 2 plays, got %d", decoded.Ledger.Plays)
		}
		if len(decoded.Achievements) != 1 || decoded.Achievements[0].ID != "first-play" {
			t.Errorf("expected first-play, got %+v", decoded.Achievements)
		}
	})

	t.Run("search", func(t *testing.T) {
		output := &bytes.Buffer{}
		r := newTestRunner(t, output)
		catalog := &fakeCatalog{tracks: tracks}
		r.catalog = catalog

		if err := run(t, searchCommand(r), "harbor", "lights"); err != nil {
			t.Fatalf("search failed: %v", err)
		}
		if len(catalog.queries) != 1 || catalog.queries[0] != "harbor lights" {
			t.Errorf("expected joined query, got %v", catalog.queries)
		}
		if !strings.Contains(output.String(), " 1. The Tides - Harbor Lights  [a]") {
			t.Errorf("unexpected output %q", output.String())
		}
	})

	t.Run("search requires a query", func(t *testing.T) {
		r := newTestRunner(t, &bytes.Buffer{})
		err := run(t, searchCommand(r))
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestFilterHistory(t *testing.T) {
	records := []models.PlayRecord{
		{ID: "1", Track: models.Track{Title: "Harbor Lights", Artist: "The Tides"}},
		{ID: "2", Track: models.Track{Title: "Desert Road", Artist: "Dune"}},
	}

	tests := []struct {
		term string
		want int
	}{
		{"", 2},
		{"TIDES", 1},
		{"hbr", 1},
		{"zzz", 0},
	}
	for _, tt := range tests {
		if got := filterHistory(records, tt.term); len(got) != tt.want {
			t.Errorf("filterHistory(%q) returned %d records, want %d", tt.term, len(got), tt.want)
		}
	}
}

func TestResolveQueue(t *testing.T) {
	playlist := &services.Playlist{ID: "PL1", Name: "Mix", Tracks: tu.Tracks(2)}

	resolve := func(t *testing.T, r *Runner, args ...string) ([]models.Track, error) {
		t.Helper()
		var (
			tracks []models.Track
			err    error
		)
		cmd := &cli.Command{
			Name:  "play",
			Flags: queueFlags(),
			Action: func(ctx context.Context, cmd *cli.Command) error {
				tracks, err = r.resolveQueue(ctx, cmd)
				return nil
			},
		}
		if runErr := run(t, cmd, args...); runErr != nil {
			t.Fatalf("command failed: %v", runErr)
		}
		return tracks, err
	}

	t.Run("ids then playlist", func(t *testing.T) {
		r := newTestRunner(t, &bytes.Buffer{})
		r.catalog = &fakeCatalog{playlist: playlist}

		tracks, err := resolve(t, r, "--playlist", "PL1", "vid1")
		if err != nil {
			t.Fatalf("resolveQueue failed: %v", err)
		}
		if len(tracks) != 3 || tracks[0].ID != "vid1" || tracks[1].ID != "t0" {
			t.Errorf("unexpected queue %+v", tracks)
		}
	})

	t.Run("empty search", func(t *testing.T) {
		r := newTestRunner(t, &bytes.Buffer{})
		_, err := resolve(t, r, "--search", "nothing")
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("missing playlist", func(t *testing.T) {
		r := newTestRunner(t, &bytes.Buffer{})
		_, err := resolve(t, r, "--playlist", "nope")
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("nothing queued", func(t *testing.T) {
		r := newTestRunner(t, &bytes.Buffer{})
		tracks, err := resolve(t, r)
		if err != nil || len(tracks) != 0 {
			t.Errorf("expected empty queue, got %v, %v", tracks, err)
		}
	})
}

func TestControlRouter(t *testing.T) {
	sdk := tu.NewFakeSDK()
	engine, err := player.New(player.Options{SDK: sdk})
	if err != nil {
		t.Fatalf("player.New failed: %v", err)
	}
	defer engine.Close()

	sdk.SignalReady()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := engine.WaitReady(ctx); err != nil {
		t.Fatalf("engine not ready: %v", err)
	}

	router := controlRouter(engine, nil, shared.NewLogger(&bytes.Buffer{}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/player/state", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if snap["state"] != "idle" || snap["ready"] != true {
		t.Errorf("unexpected snapshot %v", snap)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/achievements", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
