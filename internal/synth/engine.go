// Package synth talks to the speech-synthesis collaborator and turns
// generation requests into audio artifacts on disk.
package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/voxworks/voxbench/internal/audio"
	"github.com/voxworks/voxbench/internal/params"
)

const (
	apiSynthesize = "/synthesize"
	apiHealth     = "/health"

	contentTypeJSON = "application/json"
	contentTypeWAV  = "audio/wav"

	// DefaultEngineURL is where the local chatterbox sidecar listens.
	DefaultEngineURL = "http://127.0.0.1:8320"

	// DefaultTimeout bounds one synthesis round trip. Generation on CPU can
	// be slow for long passages, so this is deliberately generous.
	DefaultTimeout = 120 * time.Second
)

var ErrEmptyAudio = errors.New("engine returned empty audio data")

// Request is one synthesis call. AudioPromptPath may be empty; the engine
// then falls back to its default voice.
type Request struct {
	Text            string
	AudioPromptPath string
	Params          params.Set
}

// Result is the collaborator's output: a mono waveform at its native rate,
// already transferred to host memory.
type Result struct {
	Samples    []float32
	SampleRate int
}

// Synthesizer is the external speech model, loaded once at process start and
// held for the process lifetime. Implementations perform exactly one
// synthesis per call; the workbench never retries on their behalf.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (*Result, error)
}

// synthesizePayload is the engine's wire request shape.
type synthesizePayload struct {
	Text              string  `json:"text"`
	AudioPromptPath   string  `json:"audio_prompt_path,omitempty"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	MinP              float64 `json:"min_p"`
	TopP              float64 `json:"top_p"`
	Exaggeration      float64 `json:"exaggeration"`
	CfgWeight         float64 `json:"cfg_weight"`
	Temperature       float64 `json:"temperature"`
}

// engineError is the engine's structured failure response.
type engineError struct {
	Detail string `json:"detail"`
}

// HealthStatus reports engine readiness and the compute device it selected
// at startup.
type HealthStatus struct {
	Status string `json:"status"`
	Device string `json:"device"`
}

// Engine is an HTTP client for the local chatterbox sidecar.
type Engine struct {
	baseURL    string
	httpClient *http.Client
}

// NewEngine creates a client for the sidecar at baseURL.
func NewEngine(baseURL string, timeout time.Duration) *Engine {
	if baseURL == "" {
		baseURL = DefaultEngineURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Engine{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Synthesize sends one generation request and decodes the returned waveform.
func (e *Engine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	payload := synthesizePayload{
		Text:              req.Text,
		AudioPromptPath:   req.AudioPromptPath,
		RepetitionPenalty: req.Params.RepetitionPenalty,
		MinP:              req.Params.MinP,
		TopP:              req.Params.TopP,
		Exaggeration:      req.Params.Exaggeration,
		CfgWeight:         req.Params.CfgWeight,
		Temperature:       req.Params.Temperature,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, e.baseURL+apiSynthesize, bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("Accept", contentTypeWAV)

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach engine at %s: %w", e.baseURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, e.parseErrorResponse(resp)
	}

	samples, sampleRate, err := audio.DecodeWAV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode engine audio: %w", err)
	}
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	return &Result{Samples: samples, SampleRate: sampleRate}, nil
}

// Health probes the engine and returns its status and compute device.
func (e *Engine) Health(ctx context.Context) (*HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create health request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("engine health check failed at %s: %w", e.baseURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("engine health check returned %s", resp.Status)
	}

	var status HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}

	log.Debug().Str("device", status.Device).Msg("Engine is healthy")

	return &status, nil
}

// parseErrorResponse lifts the engine's structured error detail, falling
// back to the raw body so diagnostics are never lost.
func (e *Engine) parseErrorResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var engineErr engineError
	if err := json.Unmarshal(raw, &engineErr); err == nil && engineErr.Detail != "" {
		return fmt.Errorf("engine error (%s): %s", resp.Status, engineErr.Detail)
	}

	return fmt.Errorf("engine returned %s: %s", resp.Status, string(raw))
}
