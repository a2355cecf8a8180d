package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"musiccrate/internal/auth"
	"musiccrate/internal/config"
	"musiccrate/internal/database"
	"musiccrate/internal/library"
	"musiccrate/internal/logging"
)

// Runner holds the dependencies shared by every command action.
type Runner struct {
	config *config.Config
	logger *logging.Logger
	output io.Writer
	db     *sql.DB
	lib    *library.Library
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *config.Config
	Logger *logging.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		migrateCommand, seedCommand, usersCommand, loginCommand, whoamiCommand,
		artistsCommand, albumsCommand, songsCommand, playlistsCommand,
		playCommand, favoriteCommand, statsCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// open opens the store on first use, bringing the schema up to date.
func (r *Runner) open(ctx context.Context) (*library.Library, error) {
	if r.lib != nil {
		return r.lib, nil
	}

	driver, dsn := r.config.Database.Driver, r.config.Database.URL
	db, err := database.Open(ctx, driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(driver, dsn, database.Up); err != nil {
		_ = db.Close()
		return nil, err
	}

	var sessions *auth.Sessions
	if r.config.Session.Validate() == nil {
		sessions = auth.NewSessions(r.config.Session.Secret, r.config.Session.TTL)
	}
	r.db = db
	r.lib = library.New(db, r.logger, sessions)
	return r.lib, nil
}

// Close releases the store connection if one was opened.
func (r *Runner) Close() {
	if r.db != nil {
		_ = r.db.Close()
		r.db = nil
		r.lib = nil
	}
}

func (r *Runner) writeJSON(data any) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if _, err := r.output.Write(append(output, '\n')); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.output, format, args...); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
