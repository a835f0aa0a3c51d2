// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/refinery"
	"github.com/poiesic/refinery/api"
	"github.com/poiesic/refinery/config"
	"github.com/poiesic/refinery/core"
	"github.com/poiesic/refinery/engine"
	"github.com/poiesic/refinery/ingestion"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to YAML config file",
		EnvVars: []string{"REFINERY_CONFIG"},
	}
}

func cacheFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "cache-dir",
			Usage:   "Path to BadgerDB cache directory",
			EnvVars: []string{"REFINERY_CACHE_DIR"},
		},
		&cli.BoolFlag{
			Name:  "in-memory",
			Usage: "Keep the result cache in memory only",
		},
	}
}

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "model",
			Aliases: []string{"m"},
			Usage:   "Path to the whisper model file",
			EnvVars: []string{engine.ModelPathEnv},
		},
		&cli.IntFlag{
			Name:  "fan-out",
			Usage: "Number of batch items processed concurrently",
		},
		&cli.StringFlag{
			Name:    "vision-host",
			Usage:   "OpenAI-compatible vision service URL; enables image descriptions",
			EnvVars: []string{"REFINERY_VISION_HOST"},
		},
		&cli.StringFlag{
			Name:    "vision-model",
			Usage:   "Multimodal model used for image descriptions",
			EnvVars: []string{"REFINERY_VISION_MODEL"},
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    refinery.Name,
		Usage:   "Fetch media and extract text from audio, images, PDFs and documents",
		Version: refinery.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP extraction service",
				Action: serveCommand,
				Flags: append(append([]cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "Address to listen on",
						EnvVars: []string{"REFINERY_ADDR"},
					},
				}, cacheFlags()...), pipelineFlags()...),
			},
			{
				Name:      "process",
				Usage:     "Process a batch manifest and print the JSON response",
				ArgsUsage: "<manifest.json>",
				Action:    processCommand,
				Flags: append(append([]cli.Flag{
					configFlag(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the response to a file instead of stdout",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
						Value: 1,
					},
				}, cacheFlags()...), pipelineFlags()...),
			},
			{
				Name:   "purge",
				Usage:  "Remove every cached result in the configured namespace",
				Action: purgeCommand,
				Flags:  append([]cli.Flag{configFlag()}, cacheFlags()...),
			},
		},
	}
}

// loadConfig reads the config file when given and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet("addr") {
		cfg.Server.Addr = c.String("addr")
	}
	if c.IsSet("cache-dir") {
		cfg.Cache.Path = c.String("cache-dir")
	}
	if c.IsSet("in-memory") {
		cfg.Cache.InMemory = c.Bool("in-memory")
	}
	if c.IsSet("model") {
		cfg.Engine.ModelPath = c.String("model")
	}
	if c.IsSet("fan-out") {
		cfg.Server.FanOut = c.Int("fan-out")
	}
	if c.IsSet("vision-host") {
		cfg.Vision.Enabled = true
		cfg.Vision.VisionHost = c.String("vision-host")
	}
	if c.IsSet("vision-model") {
		cfg.Vision.VisionModel = c.String("vision-model")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	params := cfg.EngineParams()
	if err := engine.CheckModel(params.ModelPath); err != nil {
		// Audio items fail individually until the model appears.
		slog.Warn("speech model unavailable", "err", err)
	}

	svc, err := refinery.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Close()

	if !strings.EqualFold(c.String("log-level"), "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	server, err := api.NewServer(svc.Pipeline(), svc.Fetcher(),
		api.WithGatherer(svc.Gatherer()),
		api.WithInfo(api.NewInfo(refinery.Name, refinery.Version, cfg.Vision.Enabled)),
	)
	if err != nil {
		return err
	}

	slog.Info("starting refinery",
		"version", refinery.Version,
		"speech", engine.Backend,
		"model", params.ModelPath,
		"cache", cacheLocation(cfg),
		"vision", cfg.Vision.Enabled,
	)
	return server.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
}

func processCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.NArg() != 1 {
		return fmt.Errorf("exactly one manifest path is required")
	}
	req, err := readManifest(c.Args().First())
	if err != nil {
		return err
	}
	if len(req.Requests) == 0 {
		return fmt.Errorf("invalid manifest: %w", core.ErrNoRequests)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	progress := ingestion.NewProgressMonitor(os.Stderr, c.Int("report-interval"))
	svc, err := refinery.New(cfg, refinery.WithMonitor(progress))
	if err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Close()

	fmt.Fprintf(os.Stderr, "Manifest: %s\n", c.Args().First())
	fmt.Fprintf(os.Stderr, "Items: %d\n", len(req.Requests))
	fmt.Fprintf(os.Stderr, "Cache: %s\n", cacheLocation(cfg))
	fmt.Fprintln(os.Stderr)

	out := svc.Pipeline().ProcessBatch(ctx, req.Requests)
	svc.Flush()

	var w io.Writer = os.Stdout
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	if err := writeResponse(w, out.Response()); err != nil {
		return err
	}

	if out.Succeeded == 0 && out.Failed > 0 {
		return cli.Exit(out.Response().Message, 1)
	}
	return nil
}

func purgeCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	svc, err := refinery.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer svc.Close()

	if err := svc.Cache().Purge(c.Context); err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Purged namespace %q from %s\n", cfg.Cache.Namespace, cacheLocation(cfg))
	return nil
}

func readManifest(path string) (*core.BatchRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var req core.BatchRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return &req, nil
}

func writeResponse(w io.Writer, resp core.BatchResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func cacheLocation(cfg *config.Config) string {
	if cfg.Cache.InMemory {
		return "memory"
	}
	return cfg.Cache.Path
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
