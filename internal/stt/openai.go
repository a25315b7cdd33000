package stt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rbright/parla/internal/config"
)

// openAIEngine posts the WAV to an OpenAI-compatible /audio/transcriptions endpoint.
type openAIEngine struct {
	cfg    config.OpenAISTTConfig
	client openai.Client
}

func newOpenAIEngine(cfg config.OpenAISTTConfig, timeout time.Duration) Engine {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Retries belong to the Service policy.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &openAIEngine{cfg: cfg, client: openai.NewClient(opts...)}
}

func (e *openAIEngine) Name() string { return "openai" }

func (e *openAIEngine) Preload(context.Context) error {
	if strings.TrimSpace(e.cfg.APIKey) == "" && strings.TrimSpace(e.cfg.BaseURL) == "" {
		return errors.New("stt.openai.api_key is required for the hosted API")
	}
	if strings.TrimSpace(e.cfg.Model) == "" {
		return errors.New("stt.openai.model is required")
	}
	return nil
}

func (e *openAIEngine) Close() error { return nil }

func (e *openAIEngine) recognize(ctx context.Context, req request) (string, error) {
	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(req.wav), "audio.wav", "audio/wav"),
		Model: openai.AudioModel(e.cfg.Model),
	}
	if req.language != "" {
		params.Language = openai.String(req.language)
	}
	if len(req.hints) > 0 {
		params.Prompt = openai.String(strings.Join(hintPhrases(req.hints), ", "))
	}

	resp, err := e.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}
