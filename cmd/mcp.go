package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/voxworks/voxbench/internal/mcp"
)

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:   "mcp",
		Usage:  "Serve the workbench as MCP tools over stdio",
		Action: handleMCP,
	}
}

func handleMCP(ctx context.Context, c *cli.Command) error {
	w, err := buildWorkbench(c)
	if err != nil {
		return err
	}

	// The engine is probed once here; tool calls reuse the same client for
	// the whole server lifetime.
	if err := w.probeEngine(ctx); err != nil {
		log.Warn().Err(err).Msg("Engine not reachable yet; generation tools will fail until it is up")
	}

	return mcp.NewServer(w.store, w.service, version).ServeStdio()
}
