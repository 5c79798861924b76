package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/voxworks/voxbench/internal/config"
	"github.com/voxworks/voxbench/internal/persona"
	"github.com/voxworks/voxbench/internal/synth"
)

var (
	version  = "dev"
	revision = "none"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:  "voxbench",
		Usage: "Local voice-synthesis workbench - generate speech and manage voice personas",
		Description: `voxbench drives a local speech-synthesis engine: give it text and an
optional reference clip, tune the sampling knobs, and get a WAV file back.
Named personas persist a reference clip together with its parameter set so a
tuned voice can be reloaded later.`,
		Version: fmt.Sprintf("%s (rev: %s)", version, revision),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"V"},
				Usage:   "Enable verbose logging",
			},
			&cli.StringFlag{
				Name:  "engine-url",
				Usage: "Base URL of the synthesis engine sidecar",
			},
			&cli.StringFlag{
				Name:  "personas-dir",
				Usage: "Directory holding saved personas",
			},
		},
		Commands: []*cli.Command{
			generateCommand(),
			personaCommand(),
			mcpCommand(),
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			return ctx, nil
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}

// workbench bundles the process-wide state: the engine client is constructed
// once here and injected everywhere, never rebuilt during the run.
type workbench struct {
	cfg     *config.File
	store   *persona.Store
	engine  *synth.Engine
	service *synth.Service
}

func buildWorkbench(c *cli.Command) (*workbench, error) {
	cfg, err := config.NewLoader().Load(".")
	if err != nil {
		return nil, err
	}

	engineURL := cfg.EngineURL
	if v := c.String("engine-url"); v != "" {
		engineURL = v
	}

	personasDir := cfg.PersonasDir
	if v := c.String("personas-dir"); v != "" {
		personasDir = v
	}

	var store *persona.Store
	if personasDir != "" {
		store = persona.NewStore(personasDir)
	} else {
		store, err = persona.DefaultStore()
		if err != nil {
			return nil, err
		}
	}

	engine := synth.NewEngine(engineURL, time.Duration(cfg.TimeoutSeconds)*time.Second)

	return &workbench{
		cfg:     cfg,
		store:   store,
		engine:  engine,
		service: synth.NewService(engine, cfg.OutputDir),
	}, nil
}

// probeEngine reports the engine's readiness and compute device once at
// startup. An unreachable engine is fatal for generation commands.
func (w *workbench) probeEngine(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	status, err := w.engine.Health(probeCtx)
	if err != nil {
		return fmt.Errorf("synthesis engine is not available: %w", err)
	}

	log.Info().Str("device", status.Device).Msg("Synthesis engine ready")
	return nil
}
