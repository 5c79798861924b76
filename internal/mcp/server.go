// Package mcp exposes the workbench as Model Context Protocol tools over
// stdio, so assistants can drive generation and persona management.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/voxworks/voxbench/internal/params"
	"github.com/voxworks/voxbench/internal/persona"
	"github.com/voxworks/voxbench/internal/synth"
)

// Server bridges MCP tool calls to the persona store and generation service.
type Server struct {
	store   *persona.Store
	service *synth.Service
	mcp     *server.MCPServer
}

// NewServer builds the MCP server and registers the workbench tools.
func NewServer(store *persona.Store, service *synth.Service, version string) *Server {
	s := &Server{
		store:   store,
		service: service,
	}

	s.mcp = server.NewMCPServer(
		"voxbench",
		version,
		server.WithRecovery(),
	)

	s.mcp.AddTool(mcp.NewTool("generate_speech",
		mcp.WithDescription("Synthesize speech from text. Returns the path of a temporary WAV file owned by the caller."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to speak")),
		mcp.WithString("persona", mcp.Description("Name of a saved persona supplying reference audio and parameters")),
		mcp.WithString("reference_audio", mcp.Description("Path to a reference clip; overrides the persona's clip")),
		mcp.WithNumber("repetition_penalty", mcp.Description("Token repetition penalty, slider range 1.0-2.0")),
		mcp.WithNumber("min_p", mcp.Description("Nucleus sampling lower cutoff, 0.0-1.0")),
		mcp.WithNumber("top_p", mcp.Description("Nucleus sampling cumulative cutoff, 0.0-1.0")),
		mcp.WithNumber("exaggeration", mcp.Description("Style intensity, 0.0-1.0")),
		mcp.WithNumber("cfg_weight", mcp.Description("Classifier-free-guidance weight, 0.0-1.0")),
		mcp.WithNumber("temperature", mcp.Description("Sampling randomness, 0.1-2.0")),
	), s.handleGenerate)

	s.mcp.AddTool(mcp.NewTool("save_persona",
		mcp.WithDescription("Save a named persona: a reference clip plus generation parameters. Overwrites silently."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Persona name")),
		mcp.WithString("reference_audio", mcp.Required(), mcp.Description("Path to the reference clip to copy into the persona")),
		mcp.WithNumber("repetition_penalty", mcp.Description("Token repetition penalty")),
		mcp.WithNumber("min_p", mcp.Description("Nucleus sampling lower cutoff")),
		mcp.WithNumber("top_p", mcp.Description("Nucleus sampling cumulative cutoff")),
		mcp.WithNumber("exaggeration", mcp.Description("Style intensity")),
		mcp.WithNumber("cfg_weight", mcp.Description("Classifier-free-guidance weight")),
		mcp.WithNumber("temperature", mcp.Description("Sampling randomness")),
	), s.handleSave)

	s.mcp.AddTool(mcp.NewTool("load_persona",
		mcp.WithDescription("Load a saved persona and return its parameters and reference audio path."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Persona name")),
	), s.handleLoad)

	s.mcp.AddTool(mcp.NewTool("list_personas",
		mcp.WithDescription("List saved persona names in lexicographic order."),
	), s.handleList)

	s.mcp.AddTool(mcp.NewTool("delete_persona",
		mcp.WithDescription("Delete a saved persona and its stored reference clip."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Persona name")),
	), s.handleDelete)

	return s
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Info().Msg("Serving MCP on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()

	base := params.Defaults()
	audioPrompt := ""

	if name := request.GetString("persona", ""); name != "" {
		loaded, err := s.store.Load(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		base = loaded.Params
		audioPrompt = loaded.AudioPath
	}

	if ref := request.GetString("reference_audio", ""); ref != "" {
		audioPrompt = ref
	}

	p, err := overlayParams(base, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path, err := s.service.Generate(ctx, synth.Request{
		Text:            text,
		AudioPromptPath: audioPrompt,
		Params:          p,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Audio written to %s (caller owns cleanup)", path)), nil
}

func (s *Server) handleSave(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ref, err := request.RequireString("reference_audio")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := overlayParams(params.Defaults(), request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.store.Save(name, ref, p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Saved persona %q. Personas: %s", result.Persona.Name, strings.Join(result.Names, ", "),
	)), nil
}

func (s *Server) handleLoad(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	loaded, err := s.store.Load(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if loaded == nil {
		return mcp.NewToolResultText("No persona selected; nothing changed."), nil
	}

	payload := map[string]any{
		"name":            loaded.Name,
		"reference_audio": loaded.AudioPath,
		"parameters":      loaded.Params,
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleList(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names, err := s.store.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("No personas saved."), nil
	}

	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func (s *Server) handleDelete(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.store.Delete(name); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted persona %q", name)), nil
}

// overlayParams merges caller-supplied knob values over a base set and runs
// the result through the strict numeric intake. Tool arguments arrive as
// map[string]any, so numbers may show up as float64, int, or string
// depending on the client's serialization.
func overlayParams(base params.Set, args map[string]any) (params.Set, error) {
	values := base.Values()
	for key := range values {
		if v, ok := args[key]; ok {
			values[key] = v
		}
	}

	// The base supplies every key, so only a non-numeric caller value can
	// fail here.
	return params.FromValues(values)
}
