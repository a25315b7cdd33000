//go:build whisper

package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/rbright/parla/internal/config"
)

// LocalEngineBuilt reports whether whisper.cpp is linked into this binary.
const LocalEngineBuilt = true

// whisperEngine runs whisper.cpp in-process. The model loads once; each
// request gets its own context because contexts are not goroutine-safe.
type whisperEngine struct {
	cfg config.LocalSTTConfig

	mu    sync.Mutex
	model whisperlib.Model
}

func newWhisperEngine(cfg config.LocalSTTConfig) Engine {
	return &whisperEngine{cfg: cfg}
}

func (e *whisperEngine) Name() string { return "local" }

func (e *whisperEngine) Preload(context.Context) error {
	_, err := e.loadModel()
	return err
}

func (e *whisperEngine) loadModel() (whisperlib.Model, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model != nil {
		return e.model, nil
	}
	path := config.ExpandHome(e.cfg.Model)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("whisper model: %w", err)
	}
	model, err := whisperlib.New(path)
	if err != nil {
		return nil, fmt.Errorf("load whisper model %q: %w", path, err)
	}
	e.model = model
	return model, nil
}

func (e *whisperEngine) recognize(ctx context.Context, req request) (string, error) {
	model, err := e.loadModel()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	wctx, err := model.NewContext()
	if err != nil {
		return "", fmt.Errorf("create whisper context: %w", err)
	}
	if req.language != "" {
		if err := wctx.SetLanguage(req.language); err != nil {
			return "", fmt.Errorf("set whisper language %q: %w", req.language, err)
		}
	}
	if e.cfg.Threads > 0 {
		wctx.SetThreads(uint(e.cfg.Threads))
	}
	if prompt := whisperPrompt(req.hints); prompt != "" {
		wctx.SetInitialPrompt(prompt)
	}

	if err := wctx.Process(req.samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	var b strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper segment: %w", err)
		}
		b.WriteString(segment.Text)
	}
	return strings.TrimSpace(b.String()), nil
}

func (e *whisperEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil
	}
	err := e.model.Close()
	e.model = nil
	return err
}
