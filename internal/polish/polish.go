// Package polish rewrites transcripts through an OpenAI-compatible chat endpoint.
package polish

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/rbright/parla/internal/config"
)

// Request carries the unit context that steers polishing.
type Request struct {
	Command      bool
	WindowTitle  string
	SelectedText string
}

// Polisher rewrites text. Implementations return the input on any failure.
type Polisher interface {
	Polish(ctx context.Context, text string, req Request) string
}

// Passthrough is the Polisher used when llm.enable is false.
type Passthrough struct{}

func (Passthrough) Polish(_ context.Context, text string, _ Request) string { return text }

// Client polishes through chat completions with temperature 0.
type Client struct {
	client          openai.Client
	model           string
	timeout         time.Duration
	profiles        *Profiles
	selectionPrompt string
	logger          *slog.Logger
}

// New returns Passthrough when polishing is disabled.
func New(cfg config.LLMConfig, logger *slog.Logger) (Polisher, error) {
	if !cfg.Enable {
		return Passthrough{}, nil
	}
	return NewClient(cfg, logger)
}

// NewClient builds a chat-completion polisher from cfg.
func NewClient(cfg config.LLMConfig, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm.model must not be empty")
	}
	profiles, err := NewProfiles(cfg)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	return &Client{
		client:          openai.NewClient(opts...),
		model:           cfg.Model,
		timeout:         cfg.Timeout,
		profiles:        profiles,
		selectionPrompt: cfg.SelectionPrompt,
		logger:          logger,
	}, nil
}

// Polish implements Polisher.
func (c *Client) Polish(ctx context.Context, text string, req Request) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	profile := c.profiles.Resolve(req.WindowTitle, req.Command)
	content := c.compose(profile, text, req)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(c.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(content)},
		Temperature: param.NewOpt(0.0),
	})
	if err != nil {
		c.logger.Warn("polish failed", "profile", profile.Name, "error", err)
		return text
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("polish failed", "profile", profile.Name, "error", "empty choices")
		return text
	}

	out := StripThink(resp.Choices[0].Message.Content)
	if out == "" {
		c.logger.Warn("polish returned empty text", "profile", profile.Name)
		return text
	}
	c.logger.Info("polished",
		"model", c.model,
		"profile", profile.Name,
		"latency_ms", time.Since(start).Milliseconds(),
		"selection", req.SelectedText != "",
	)
	return out
}

// compose builds the user message. Selection-driven edits use the selection
// template; everything else is profile prompt followed by the transcript.
func (c *Client) compose(profile Profile, text string, req Request) string {
	if req.SelectedText != "" && !req.Command && c.selectionPrompt != "" {
		return ApplyTemplate(c.selectionPrompt, req.SelectedText, text)
	}
	return profile.Prompt + text
}

// ApplyTemplate fills {{selection}} and {{text}}. Without a {{text}}
// placeholder the transcript is appended.
func ApplyTemplate(template, selection, text string) string {
	out := strings.ReplaceAll(template, "{{selection}}", selection)
	if !strings.Contains(out, "{{text}}") {
		return out + text
	}
	return strings.ReplaceAll(out, "{{text}}", text)
}

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThink removes reasoning blocks some local models emit and trims the result.
func StripThink(text string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(text, ""))
}
