package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytplay/internal/services"
	"github.com/desertthunder/ytplay/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.Catalog
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	loadToken  func() (string, error)
	saveToken  func(string) error
	now        func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.Catalog
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
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
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Catalog == nil {
		opts.Catalog = services.NewCatalogService(opts.Config.Catalog.ProxyURL, opts.HTTPClient)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		loadToken:  shared.LoadToken,
		saveToken:  shared.SaveToken,
		now:        time.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, playCommand, serveCommand, searchCommand, historyCommand, statsCommand, achievementsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the logger, e.g. for a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// openDatabase opens the configured SQLite database and applies pending migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	path := r.config.Database.Path
	if path == "" {
		var err error
		if path, err = shared.DefaultDatabasePath(); err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
	}
	if dir := filepath.Dir(path); dir != "" && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := shared.NewDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// apiToken returns the configured token, falling back to the system keyring.
func (r *Runner) apiToken() string {
	if r.config.API.Token != "" {
		return r.config.API.Token
	}
	token, err := r.loadToken()
	if err != nil {
		r.logger.Debug("keyring unavailable", "error", err)
		return ""
	}
	return token
}

// apiService returns a client for the hosted engagement API, or nil when no token is available.
func (r *Runner) apiService(ctx context.Context) *services.APIService {
	token := r.apiToken()
	if token == "" {
		return nil
	}
	client := services.NewBearerClient(ctx, token, r.config.API.Timeout)
	return services.NewAPIService(r.config.API.BaseURL, client)
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

func (r *Runner) writeBytes(b []byte) error {
	if _, err := r.output.Write(b); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
