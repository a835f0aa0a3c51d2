package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func findCommand(t *testing.T, name string) *cli.Command {
	t.Helper()
	for _, cmd := range newApp().Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func findStringFlag(cmd *cli.Command, name string) *cli.StringFlag {
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == name {
			return f
		}
	}
	return nil
}

// contextFor parses args against a command's flags without running it.
func contextFor(t *testing.T, command string, args ...string) *cli.Context {
	t.Helper()
	cmd := findCommand(t, command)
	set := flag.NewFlagSet(command, flag.ContinueOnError)
	for _, f := range cmd.Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(newApp(), set, nil)
}

func TestCommands(t *testing.T) {
	app := newApp()
	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"serve", "process", "purge"}, names)
}

func TestServeCommandFlags(t *testing.T) {
	cmd := findCommand(t, "serve")

	t.Run("addr reads REFINERY_ADDR", func(t *testing.T) {
		f := findStringFlag(cmd, "addr")
		require.NotNil(t, f)
		assert.Equal(t, []string{"REFINERY_ADDR"}, f.EnvVars)
		assert.Empty(t, f.Value, "default comes from the config")
	})

	t.Run("model reads WHISPER_MODEL_PATH", func(t *testing.T) {
		f := findStringFlag(cmd, "model")
		require.NotNil(t, f)
		assert.Equal(t, []string{engine.ModelPathEnv}, f.EnvVars)
		assert.Contains(t, f.Aliases, "m")
	})

	t.Run("config has alias -c", func(t *testing.T) {
		f := findStringFlag(cmd, "config")
		require.NotNil(t, f)
		assert.Contains(t, f.Aliases, "c")
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without flags", func(t *testing.T) {
		cfg, err := loadConfig(contextFor(t, "serve"))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.False(t, cfg.Vision.Enabled)
	})

	t.Run("flags override the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: :7000\n  fan_out: 2\n"), 0o644))

		cfg, err := loadConfig(contextFor(t, "serve",
			"--config", path,
			"--addr", "127.0.0.1:9999",
			"--in-memory",
			"--model", "/models/tiny.bin",
			"--vision-host", "http://vision:8080",
		))
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
		assert.Equal(t, 2, cfg.Server.FanOut)
		assert.True(t, cfg.Cache.InMemory)
		assert.Equal(t, "/models/tiny.bin", cfg.Engine.ModelPath)
		assert.True(t, cfg.Vision.Enabled)
		assert.Equal(t, "http://vision:8080/v1", cfg.Vision.VisionHost)
	})

	t.Run("invalid override fails validation", func(t *testing.T) {
		_, err := loadConfig(contextFor(t, "serve", "--fan-out", "0"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fan_out")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loadConfig(contextFor(t, "purge", "--config", filepath.Join(t.TempDir(), "nope.yaml")))
		assert.Error(t, err)
	})
}

func TestProcessCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/notes.md" {
			w.Write([]byte("# Agenda"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.json")
	body, err := json.Marshal(core.BatchRequest{Requests: []core.BatchItemRequest{
		{FileURL: srv.URL + "/notes.md", Filename: "notes.md"},
		{FileURL: srv.URL + "/gone.txt", Filename: "gone.txt"},
		{FileURL: "ftp://example.com/c.txt", Filename: "c.txt"},
	}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(manifest, body, 0o644))
	output := filepath.Join(dir, "out.json")

	err = newApp().Run([]string{"refinery", "-l", "error", "process", "--in-memory", "-o", output, manifest})
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var resp core.BatchResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Batch complete. Success: 1, Failed: 2", resp.Message)
	require.Len(t, resp.Data, 3)
	assert.JSONEq(t, `{"text":"# Agenda"}`, string(resp.Data[0].Result))
	assert.NotEmpty(t, resp.Data[1].Error)
	assert.Contains(t, resp.Data[2].Error, "unsupported url scheme")
}

func TestProcessCommandValidation(t *testing.T) {
	t.Run("manifest argument is required", func(t *testing.T) {
		err := newApp().Run([]string{"refinery", "process", "--in-memory"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "manifest")
	})

	t.Run("empty manifest is rejected", func(t *testing.T) {
		manifest := filepath.Join(t.TempDir(), "manifest.json")
		require.NoError(t, os.WriteFile(manifest, []byte(`{"requests":[]}`), 0o644))

		err := newApp().Run([]string{"refinery", "process", "--in-memory", manifest})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid manifest")
	})

	t.Run("unparseable manifest", func(t *testing.T) {
		manifest := filepath.Join(t.TempDir(), "manifest.json")
		require.NoError(t, os.WriteFile(manifest, []byte(`not json`), 0o644))

		err := newApp().Run([]string{"refinery", "process", "--in-memory", manifest})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse manifest")
	})
}

func TestPurgeCommand(t *testing.T) {
	err := newApp().Run([]string{"refinery", "-l", "error", "purge", "--cache-dir", filepath.Join(t.TempDir(), "cache")})
	assert.NoError(t, err)
}

func TestSetupLogger(t *testing.T) {
	newTestApp := func(action cli.ActionFunc) *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: action,
		}
	}
	noop := func(c *cli.Context) error { return nil }

	t.Run("valid log levels", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected slog.Level
		}{
			{"debug", slog.LevelDebug},
			{"info", slog.LevelInfo},
			{"warn", slog.LevelWarn},
			{"error", slog.LevelError},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				err := newTestApp(noop).Run([]string{"test", "--log-level", tc.input})
				require.NoError(t, err)
				assert.True(t, slog.Default().Enabled(t.Context(), tc.expected))
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				err := newTestApp(noop).Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newTestApp(noop).Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
		assert.Contains(t, err.Error(), "invalid")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		err := newTestApp(func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		}).Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}
