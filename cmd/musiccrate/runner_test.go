package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"musiccrate/internal/config"
	"musiccrate/internal/logging"
	"musiccrate/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", URL: filepath.Join(t.TempDir(), "crate.db")},
		Session:  config.SessionConfig{Secret: "0123456789abcdef", TTL: time.Hour},
		Logging:  config.LoggingConfig{Level: "error", Format: "json"},
	}
}

func run(t *testing.T, runner *Runner, args ...string) (string, error) {
	t.Helper()

	output := &bytes.Buffer{}
	runner.output = output
	app := &cli.Command{Name: "musiccrate", Commands: runner.register()}
	err := app.Run(context.Background(), append([]string{"musiccrate"}, args...))
	return output.String(), err
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			cfg := testConfig(t)
			logger := logging.Nop()
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{Config: cfg, Logger: logger, Output: output})
			if runner.config != cfg {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: testConfig(t)})
		names := map[string]bool{}
		for _, cmd := range runner.register() {
			names[cmd.Name] = true
		}
		for _, want := range []string{"migrate", "seed", "users", "artists", "albums", "songs", "playlists", "play", "stats"} {
			if !names[want] {
				t.Errorf("expected command %q to be registered", want)
			}
		}
	})

	t.Run("Close without open", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: testConfig(t)})
		runner.Close()
		if runner.db != nil {
			t.Error("expected no connection")
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("migrate version", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: testConfig(t)})
		defer runner.Close()

		if _, err := run(t, runner, "migrate", "up"); err != nil {
			t.Fatalf("migrate up: %v", err)
		}
		out, err := run(t, runner, "migrate", "version")
		if err != nil {
			t.Fatalf("migrate version: %v", err)
		}
		if !strings.Contains(out, "version 1") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("seed is idempotent", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: testConfig(t)})
		defer runner.Close()

		for i := 0; i < 2; i++ {
			if _, err := run(t, runner, "seed"); err != nil {
				t.Fatalf("seed run %d: %v", i+1, err)
			}
		}

		out, err := run(t, runner, "albums", "list", "--user", demoUsername)
		if err != nil {
			t.Fatalf("albums list: %v", err)
		}
		var albums []models.Album
		if err := json.Unmarshal([]byte(out), &albums); err != nil {
			t.Fatalf("decode albums: %v", err)
		}
		if len(albums) != len(demoAlbums) {
			t.Fatalf("expected %d albums, got %d", len(demoAlbums), len(albums))
		}
	})

	t.Run("login and whoami", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: testConfig(t)})
		defer runner.Close()

		if _, err := run(t, runner, "users", "add", "--username", "alice", "--password", "pw-alice"); err != nil {
			t.Fatalf("users add: %v", err)
		}
		token, err := run(t, runner, "login", "--username", "alice", "--password", "pw-alice")
		if err != nil {
			t.Fatalf("login: %v", err)
		}

		out, err := run(t, runner, "whoami", "--token", strings.TrimSpace(token))
		if err != nil {
			t.Fatalf("whoami: %v", err)
		}
		if !strings.Contains(out, `"alice"`) {
			t.Errorf("expected alice in %q", out)
		}
		if strings.Contains(out, "pw-alice") {
			t.Errorf("password leaked into output")
		}

		if _, err := run(t, runner, "login", "--username", "alice", "--password", "nope"); err == nil {
			t.Error("expected wrong password to fail")
		}
	})

	t.Run("session secret only needed for login", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Session.Secret = ""
		runner := NewRunner(RunnerOpts{Config: cfg})
		defer runner.Close()

		if _, err := run(t, runner, "seed"); err != nil {
			t.Fatalf("seed without secret: %v", err)
		}
		_, err := run(t, runner, "login", "--username", demoUsername, "--password", "demo123")
		if err == nil || !strings.Contains(err.Error(), "SESSION_SECRET") {
			t.Fatalf("expected SESSION_SECRET error, got %v", err)
		}
	})

	t.Run("play", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: testConfig(t)})
		defer runner.Close()

		out, err := run(t, runner, "songs", "add", "--title", "Teardrop", "--duration", "330", "--user", "alice")
		if err != nil {
			t.Fatalf("songs add: %v", err)
		}
		if !strings.Contains(out, "created song 1") {
			t.Fatalf("unexpected output %q", out)
		}

		for i := 0; i < 2; i++ {
			if _, err := run(t, runner, "play", "--user", "alice", "--song", "1"); err != nil {
				t.Fatalf("play: %v", err)
			}
		}

		out, err = run(t, runner, "stats", "--user", "alice")
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		var report statsReport
		if err := json.Unmarshal([]byte(out), &report); err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		if report.Summary == nil || report.Summary.TotalPlays != 2 {
			t.Errorf("expected 2 plays, got %+v", report.Summary)
		}

		if _, err := run(t, runner, "play", "--user", "alice", "--song", "42"); err == nil {
			t.Error("expected play of a missing song to fail")
		}
	})
}
