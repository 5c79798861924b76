package synth

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/voxworks/voxbench/internal/audio"
	"github.com/voxworks/voxbench/internal/core"
)

const outputFilePattern = "voxbench_*.wav"

// Service turns one generation request into one temporary audio file via the
// injected synthesizer. The synthesizer is shared, immutable state; callers
// that allow concurrent triggering must serialize around it.
type Service struct {
	synth  Synthesizer
	outDir string
}

// NewService creates a generation service writing artifacts to outDir.
// An empty outDir means the system temporary directory.
func NewService(synth Synthesizer, outDir string) *Service {
	return &Service{synth: synth, outDir: outDir}
}

// Generate performs exactly one synthesis and writes the waveform to a
// freshly created, uniquely named WAV file. The caller owns the returned
// file and is responsible for its cleanup. Failures from the collaborator
// come back as GenerationError and are terminal for this request.
func (s *Service) Generate(ctx context.Context, req Request) (string, error) {
	if req.Text == "" {
		return "", core.NewValidationError("text", "text is required")
	}

	requestID := uuid.NewString()
	log.Info().
		Str("request_id", requestID).
		Int("text_len", len(req.Text)).
		Bool("has_prompt", req.AudioPromptPath != "").
		Msg("Generating audio")

	result, err := s.synth.Synthesize(ctx, req)
	if err != nil {
		log.Error().Str("request_id", requestID).Err(err).Msg("Synthesis failed")
		return "", core.NewGenerationError(err)
	}

	path, err := s.writeArtifact(result)
	if err != nil {
		return "", err
	}

	log.Info().
		Str("request_id", requestID).
		Str("output", path).
		Int("samples", len(result.Samples)).
		Int("sample_rate", result.SampleRate).
		Msg("Generated audio")

	return path, nil
}

func (s *Service) writeArtifact(result *Result) (string, error) {
	tmpFile, err := os.CreateTemp(s.outDir, outputFilePattern)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}

	if err := audio.EncodeWAV(tmpFile, result.Samples, result.SampleRate); err != nil {
		_ = tmpFile.Close()
		_ = os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to write output file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		_ = os.Remove(tmpFile.Name())
		return "", fmt.Errorf("failed to close output file: %w", err)
	}

	return tmpFile.Name(), nil
}
