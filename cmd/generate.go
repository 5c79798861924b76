package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/voxworks/voxbench/internal/audio"
	"github.com/voxworks/voxbench/internal/params"
	"github.com/voxworks/voxbench/internal/synth"
)

func generateCommand() *cli.Command {
	return &cli.Command{
		Name:      "generate",
		Aliases:   []string{"gen", "g"},
		Usage:     "Synthesize speech from text",
		ArgsUsage: "<text>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ref",
				Aliases: []string{"r"},
				Usage:   "Reference audio clip conditioning the output voice",
			},
			&cli.StringFlag{
				Name:    "persona",
				Aliases: []string{"p"},
				Usage:   "Saved persona supplying reference audio and parameters",
			},
			&cli.Float64Flag{
				Name:  "repetition-penalty",
				Usage: "Token repetition penalty (1.0-2.0)",
				Value: params.DefaultRepetitionPenalty,
			},
			&cli.Float64Flag{
				Name:  "min-p",
				Usage: "Nucleus sampling lower cutoff (0.0-1.0)",
				Value: params.DefaultMinP,
			},
			&cli.Float64Flag{
				Name:  "top-p",
				Usage: "Nucleus sampling cumulative cutoff (0.0-1.0)",
				Value: params.DefaultTopP,
			},
			&cli.Float64Flag{
				Name:  "exaggeration",
				Usage: "Style intensity (0.0-1.0)",
				Value: params.DefaultExaggeration,
			},
			&cli.Float64Flag{
				Name:  "cfg-weight",
				Usage: "Classifier-free-guidance weight (0.0-1.0)",
				Value: params.DefaultCfgWeight,
			},
			&cli.Float64Flag{
				Name:  "temperature",
				Usage: "Sampling randomness (0.1-2.0)",
				Value: params.DefaultTemperature,
			},
			&cli.BoolFlag{
				Name:  "play",
				Usage: "Play the generated audio after writing it",
			},
		},
		Action: handleGenerate,
	}
}

func handleGenerate(ctx context.Context, c *cli.Command) error {
	text := strings.Join(c.Args().Slice(), " ")

	w, err := buildWorkbench(c)
	if err != nil {
		return err
	}

	p := params.Set{
		RepetitionPenalty: c.Float64("repetition-penalty"),
		MinP:              c.Float64("min-p"),
		TopP:              c.Float64("top-p"),
		Exaggeration:      c.Float64("exaggeration"),
		CfgWeight:         c.Float64("cfg-weight"),
		Temperature:       c.Float64("temperature"),
	}
	audioPrompt := c.String("ref")

	// A persona supplies the baseline; explicit flags win over it.
	if name := c.String("persona"); name != "" {
		loaded, err := w.store.Load(name)
		if err != nil {
			return err
		}
		p = overlayFlagParams(loaded.Params, c)
		if audioPrompt == "" {
			audioPrompt = loaded.AudioPath
		}
	}

	if err := w.probeEngine(ctx); err != nil {
		return err
	}

	path, err := w.service.Generate(ctx, synth.Request{
		Text:            text,
		AudioPromptPath: audioPrompt,
		Params:          p,
	})
	if err != nil {
		return err
	}

	fmt.Println(path)

	if c.Bool("play") {
		if err := audio.Play(path); err != nil {
			return err
		}
		color.Green("✓ Playback finished")
	}

	return nil
}

// overlayFlagParams applies only the knob flags the user actually set on top
// of a persona's parameters.
func overlayFlagParams(base params.Set, c *cli.Command) params.Set {
	p := base
	if c.IsSet("repetition-penalty") {
		p.RepetitionPenalty = c.Float64("repetition-penalty")
	}
	if c.IsSet("min-p") {
		p.MinP = c.Float64("min-p")
	}
	if c.IsSet("top-p") {
		p.TopP = c.Float64("top-p")
	}
	if c.IsSet("exaggeration") {
		p.Exaggeration = c.Float64("exaggeration")
	}
	if c.IsSet("cfg-weight") {
		p.CfgWeight = c.Float64("cfg-weight")
	}
	if c.IsSet("temperature") {
		p.Temperature = c.Float64("temperature")
	}
	return p
}
