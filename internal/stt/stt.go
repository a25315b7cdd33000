// Package stt turns WAV payloads into text through one engine chosen at startup.
package stt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/parla/internal/audio"
	"github.com/rbright/parla/internal/config"
	"github.com/rbright/parla/internal/retry"
	"github.com/rbright/parla/internal/transcript"
)

// ErrUnknownEngine reports an stt.engine value with no implementation.
var ErrUnknownEngine = errors.New("unknown stt engine")

// Transcriber is the pipeline-facing contract. An empty string with a nil
// error means no speech was detected.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte) (string, error)
}

// Engine is one recognition backend. The set of engines is closed; New picks
// one from config.
type Engine interface {
	Name() string
	// Preload loads models or validates credentials before the first unit.
	Preload(ctx context.Context) error
	Close() error

	recognize(ctx context.Context, req request) (string, error)
}

// Hint is a dictionary phrase passed to engines that accept biasing.
type Hint struct {
	Phrase string
	Boost  float32
}

type request struct {
	wav        []byte
	samples    []float32
	sampleRate int
	language   string
	hints      []Hint
}

// Options configures a Service.
type Options struct {
	Language         string
	SilenceThreshold float64
	Timeout          time.Duration
	Hints            []Hint
	Retry            retry.Policy
	Post             *transcript.Processor
}

// Service wraps an engine with the silence short-circuit, bounded retry of
// transient failures, and transcript post-processing.
type Service struct {
	engine Engine
	opts   Options
	logger *slog.Logger
}

// New builds the configured engine and preloads it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Service, error) {
	phrases, _, err := config.BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, fmt.Errorf("build dictionary: %w", err)
	}
	hints := make([]Hint, 0, len(phrases))
	words := make([]string, 0, len(phrases))
	for _, p := range phrases {
		hints = append(hints, Hint{Phrase: p.Phrase, Boost: p.Boost})
		words = append(words, p.Phrase)
	}

	engine, err := NewEngine(cfg.STT)
	if err != nil {
		return nil, err
	}
	if err := engine.Preload(ctx); err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("preload %s engine: %w", engine.Name(), err)
	}

	return NewService(engine, Options{
		Language:         cfg.STT.Language,
		SilenceThreshold: cfg.STT.SilenceThreshold,
		Timeout:          cfg.STT.Timeout,
		Hints:            hints,
		Retry:            retry.Default(IsTransient),
		Post: transcript.NewProcessor(transcript.Options{
			FullwidthPunctuation: cfg.STT.FullwidthPunctuation,
			Dictionary:           words,
			DictionaryThreshold:  cfg.STT.DictionaryThreshold,
		}),
	}, logger), nil
}

// NewEngine maps stt.engine to an implementation.
func NewEngine(cfg config.STTConfig) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case "local":
		return newWhisperEngine(cfg.Local), nil
	case "tencent":
		return newTencentEngine(cfg.Tencent, cfg.Timeout), nil
	case "google":
		return newGoogleEngine(cfg.Google), nil
	case "openai":
		return newOpenAIEngine(cfg.OpenAI, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, cfg.Engine)
	}
}

// NewService wraps engine. A nil logger discards output.
func NewService(engine Engine, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Post == nil {
		opts.Post = transcript.NewProcessor(transcript.Options{})
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = func(attempt int, err error) {
			logger.Info("transcription retry", "engine", engine.Name(), "attempt", attempt, "error", err)
		}
	}
	return &Service{engine: engine, opts: opts, logger: logger}
}

// ObserveRetries calls fn with the engine name on every transient retry, after
// the default logging. Call it before the first Transcribe.
func (s *Service) ObserveRetries(fn func(engine string)) {
	next := s.opts.Retry.OnRetry
	name := s.engine.Name()
	s.opts.Retry.OnRetry = func(attempt int, err error) {
		if next != nil {
			next(attempt, err)
		}
		fn(name)
	}
}

// Transcribe implements Transcriber.
func (s *Service) Transcribe(ctx context.Context, wav []byte) (string, error) {
	samples, rate, err := audio.DecodeWAV(wav)
	if err != nil {
		return "", fmt.Errorf("decode wav: %w", err)
	}
	if rms := audio.Frame(samples).RMS(); rms < s.opts.SilenceThreshold {
		s.logger.Info("skip silence", "rms", rms)
		return "", nil
	}

	req := request{
		wav:        wav,
		samples:    samples,
		sampleRate: rate,
		language:   s.opts.Language,
		hints:      s.opts.Hints,
	}

	start := time.Now()
	text, err := retry.Value(ctx, s.opts.Retry, func(ctx context.Context) (string, error) {
		if s.opts.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
			defer cancel()
		}
		return s.engine.recognize(ctx, req)
	})
	if err != nil {
		return "", fmt.Errorf("%s transcription: %w", s.engine.Name(), err)
	}

	text = s.opts.Post.Process(text)
	s.logger.Info("transcribed",
		"engine", s.engine.Name(),
		"latency_ms", time.Since(start).Milliseconds(),
		"chars", len([]rune(text)),
	)
	return text, nil
}

// Close releases the engine.
func (s *Service) Close() error {
	return s.engine.Close()
}

func hintPhrases(hints []Hint) []string {
	out := make([]string, 0, len(hints))
	for _, h := range hints {
		out = append(out, h.Phrase)
	}
	return out
}
