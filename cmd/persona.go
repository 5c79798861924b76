package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/voxworks/voxbench/internal/params"
)

func personaCommand() *cli.Command {
	return &cli.Command{
		Name:    "persona",
		Aliases: []string{"p"},
		Usage:   "Manage saved voice personas",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls", "l"},
				Usage:   "List saved personas",
				Action:  handlePersonaList,
			},
			{
				Name:      "save",
				Aliases:   []string{"s"},
				Usage:     "Save a persona from a reference clip and parameter flags",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "ref",
						Aliases:  []string{"r"},
						Usage:    "Reference audio clip to copy into the persona",
						Required: true,
					},
					&cli.Float64Flag{Name: "repetition-penalty", Value: params.DefaultRepetitionPenalty},
					&cli.Float64Flag{Name: "min-p", Value: params.DefaultMinP},
					&cli.Float64Flag{Name: "top-p", Value: params.DefaultTopP},
					&cli.Float64Flag{Name: "exaggeration", Value: params.DefaultExaggeration},
					&cli.Float64Flag{Name: "cfg-weight", Value: params.DefaultCfgWeight},
					&cli.Float64Flag{Name: "temperature", Value: params.DefaultTemperature},
				},
				Action: handlePersonaSave,
			},
			{
				Name:      "show",
				Usage:     "Show a persona's parameters and reference audio path",
				ArgsUsage: "<name>",
				Action:    handlePersonaShow,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a persona and its stored reference clip",
				ArgsUsage: "<name>",
				Action:    handlePersonaDelete,
			},
		},
	}
}

func handlePersonaList(_ context.Context, c *cli.Command) error {
	w, err := buildWorkbench(c)
	if err != nil {
		return err
	}

	names, err := w.store.List()
	if err != nil {
		return err
	}

	if len(names) == 0 {
		fmt.Println("No personas found. Save one with 'voxbench persona save <name> --ref clip.wav'")
		return nil
	}

	color.Cyan("Available personas:")
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}

	return nil
}

func handlePersonaSave(_ context.Context, c *cli.Command) error {
	name := c.Args().Get(0)

	w, err := buildWorkbench(c)
	if err != nil {
		return err
	}

	existed := w.store.Exists(name)

	result, err := w.store.Save(name, c.String("ref"), params.Set{
		RepetitionPenalty: c.Float64("repetition-penalty"),
		MinP:              c.Float64("min-p"),
		TopP:              c.Float64("top-p"),
		Exaggeration:      c.Float64("exaggeration"),
		CfgWeight:         c.Float64("cfg-weight"),
		Temperature:       c.Float64("temperature"),
	})
	if err != nil {
		return err
	}

	if existed {
		color.Yellow("Overwrote persona %q", result.Persona.Name)
	} else {
		color.Green("Saved persona %q", result.Persona.Name)
	}

	return nil
}

func handlePersonaShow(_ context.Context, c *cli.Command) error {
	name := c.Args().Get(0)

	w, err := buildWorkbench(c)
	if err != nil {
		return err
	}

	loaded, err := w.store.Load(name)
	if err != nil {
		return err
	}
	if loaded == nil {
		return fmt.Errorf("persona name is required")
	}

	data, err := json.MarshalIndent(loaded.Params, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render parameters: %w", err)
	}

	color.Cyan("Persona: %s", loaded.Name)
	fmt.Printf("Reference audio: %s\n", loaded.AudioPath)
	fmt.Println(string(data))

	return nil
}

func handlePersonaDelete(_ context.Context, c *cli.Command) error {
	name := c.Args().Get(0)
	if name == "" {
		return fmt.Errorf("persona name is required")
	}

	w, err := buildWorkbench(c)
	if err != nil {
		return err
	}

	if err := w.store.Delete(name); err != nil {
		return err
	}

	color.Green("Deleted persona %q", name)
	return nil
}
