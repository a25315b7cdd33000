// Package indicator renders daemon state and plays audio cues.
//
// Display priority is recording, then processing, then idle: a new recording
// takes the surface even while earlier units are still transcribing.
package indicator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/parla/internal/config"
)

type status int

const (
	statusIdle status = iota
	statusProcessing
	statusRecording
	statusError
)

func (s status) String() string {
	switch s {
	case statusRecording:
		return "recording"
	case statusProcessing:
		return "processing"
	case statusError:
		return "error"
	default:
		return "idle"
	}
}

// persistentTimeoutMS keeps recording/processing notices up until replaced.
const persistentTimeoutMS = 300000

// Indicator tracks recording and processing state for one daemon.
type Indicator struct {
	cfg      config.IndicatorConfig
	surface  surface
	logger   *slog.Logger
	messages messages
	play     func(cueKind) error

	mu        sync.Mutex
	recording bool
	pending   int
	shown     status
	shownText string

	soundMu sync.Mutex
}

// New builds an indicator for cfg.Backend. A disabled indicator still plays
// cues when sound is enabled.
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Indicator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return newIndicator(cfg, surfaceFor(cfg), logger)
}

func newIndicator(cfg config.IndicatorConfig, s surface, logger *slog.Logger) *Indicator {
	return &Indicator{
		cfg:      cfg,
		surface:  s,
		logger:   logger,
		messages: messagesFromEnv(),
		play:     playPulseCue,
	}
}

func surfaceFor(cfg config.IndicatorConfig) surface {
	if !cfg.Enable {
		return noneSurface{}
	}
	switch cfg.Backend {
	case "hypr":
		return hyprSurface{}
	case "desktop":
		return &desktopSurface{appName: cfg.DesktopAppName}
	case "notify":
		return notifySurface{}
	case "tray":
		return traySurface{}
	default:
		return noneSurface{}
	}
}

// Status reports the state currently rendered.
func (i *Indicator) Status() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.target().String()
}

func (i *Indicator) ShowRecording(ctx context.Context) {
	i.playCue(cueStart)
	i.update(ctx, func() { i.recording = true })
}

func (i *Indicator) StopRecording(ctx context.Context) {
	i.playCue(cueStop)
	i.update(ctx, func() { i.recording = false })
}

func (i *Indicator) CancelRecording(ctx context.Context) {
	i.playCue(cueCancel)
	i.update(ctx, func() { i.recording = false })
}

// BeginProcessing marks one unit in flight.
func (i *Indicator) BeginProcessing(ctx context.Context) {
	i.update(ctx, func() { i.pending++ })
}

// EndProcessing marks one unit finished. A non-nil err flashes the error notice.
func (i *Indicator) EndProcessing(ctx context.Context, err error) {
	i.update(ctx, func() {
		if i.pending > 0 {
			i.pending--
		}
	})
	if err != nil {
		i.ShowError(ctx, "")
		return
	}
	i.playCue(cueComplete)
}

// ShowError shows a transient error notice. Empty text uses the locale default.
func (i *Indicator) ShowError(ctx context.Context, text string) {
	i.playCue(cueError)
	if text == "" {
		text = i.messages.errorText
	}
	timeout := i.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.shown, i.shownText = statusError, text
	i.run(ctx, func(ctx context.Context) error {
		return i.surface.show(ctx, statusError, text, timeout)
	})
}

// target is the state the surface should show. Callers hold mu.
func (i *Indicator) target() status {
	switch {
	case i.recording:
		return statusRecording
	case i.pending > 0:
		return statusProcessing
	default:
		return statusIdle
	}
}

func (i *Indicator) update(ctx context.Context, mutate func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	mutate()

	next := i.target()
	text := i.textFor(next)
	if next == i.shown && text == i.shownText {
		return
	}

	prev := i.shown
	i.shown, i.shownText = next, text
	switch {
	case next == statusIdle && prev == statusError:
		// Let the error notice expire on its own.
	case next == statusIdle:
		i.run(ctx, i.surface.hide)
	default:
		i.run(ctx, func(ctx context.Context) error {
			return i.surface.show(ctx, next, text, persistentTimeoutMS)
		})
	}
}

func (i *Indicator) textFor(s status) string {
	switch s {
	case statusRecording:
		return i.messages.recording
	case statusProcessing:
		if i.pending > 1 {
			return fmt.Sprintf("%s (%d)", i.messages.processing, i.pending)
		}
		return i.messages.processing
	default:
		return ""
	}
}

// run executes a surface operation with a bounded timeout.
func (i *Indicator) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		i.logger.Debug("indicator dispatch failed", "backend", i.cfg.Backend, "error", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (i *Indicator) playCue(kind cueKind) {
	if !i.cfg.SoundEnable {
		return
	}
	go func() {
		i.soundMu.Lock()
		defer i.soundMu.Unlock()
		if err := i.play(kind); err != nil {
			i.logger.Debug("indicator audio cue failed", "error", err)
		}
	}()
}
