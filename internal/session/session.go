// Package session turns hotkey press/release into queued transcription units.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/parla/internal/audio"
	"github.com/rbright/parla/internal/fsm"
	"github.com/rbright/parla/internal/ipc"
)

// Config holds the controller's policy knobs.
type Config struct {
	// MinFinalDuration discards final units shorter than this (accidental taps).
	MinFinalDuration time.Duration
	// ProbeSelection enables the copy-selection probe for dictation presses.
	ProbeSelection bool
}

// Deps are the controller's collaborators. Recorder and Sink are required.
type Deps struct {
	Recorder  Recorder
	Sink      Sink
	Inspector Inspector
	Selection SelectionProbe
	Indicator Indicator
	Stats     Stats
	Metrics   Metrics
	Quit      func()
	Logger    *slog.Logger
}

// Controller owns the recording state shared by the hotkey listener and IPC.
type Controller struct {
	cfg       Config
	recorder  Recorder
	sink      Sink
	inspector Inspector
	selection SelectionProbe
	indicator Indicator
	stats     Stats
	metrics   Metrics
	quit      func()
	logger    *slog.Logger

	// opMu serializes Press/Release/Cancel; mu guards the snapshot fields.
	opMu    sync.Mutex
	mu      sync.RWMutex
	state   fsm.State
	current *active
}

// NewController constructs a controller with no-op fallbacks for optional deps.
func NewController(cfg Config, deps Deps) *Controller {
	c := &Controller{
		cfg:       cfg,
		recorder:  deps.Recorder,
		sink:      deps.Sink,
		inspector: deps.Inspector,
		selection: deps.Selection,
		indicator: deps.Indicator,
		stats:     deps.Stats,
		metrics:   deps.Metrics,
		quit:      deps.Quit,
		logger:    deps.Logger,
		state:     fsm.StateIdle,
	}
	if c.inspector == nil {
		c.inspector = noopInspector{}
	}
	if c.indicator == nil {
		c.indicator = noopIndicator{}
	}
	if c.metrics == nil {
		c.metrics = noopMetrics{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// State returns the current FSM state snapshot.
func (c *Controller) State() fsm.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Current returns the active session context, if any.
func (c *Controller) Current() (Context, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return Context{}, false
	}
	return c.current.ctx, true
}

func (c *Controller) transition(event fsm.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	return nil
}

// Press captures the session context and starts recording.
func (c *Controller) Press(ctx context.Context, mode Mode) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	if err := c.transition(fsm.EventPress); err != nil {
		if c.State() == fsm.StateRecording {
			return ErrAlreadyRecording
		}
		return fmt.Errorf("press: %w", err)
	}

	sessionCtx := c.capture(ctx, mode)
	session := newActive(sessionCtx)

	if !c.recorder.Start(func(wav []byte) { c.emit(session, wav, false) }) {
		c.toErrorAndReset()
		c.indicator.ShowError(ctx, "Unable to start recording")
		return fmt.Errorf("start recorder: %w", ErrAlreadyRecording)
	}

	c.mu.Lock()
	c.current = session
	c.mu.Unlock()

	c.indicator.ShowRecording(ctx)
	c.logger.Info("recording started",
		"session", sessionCtx.SessionID,
		"mode", sessionCtx.Mode,
		"terminal", sessionCtx.IsTerminal,
		"window_class", sessionCtx.WindowClass,
		"selection", sessionCtx.SelectedText != "",
	)
	return nil
}

// capture builds the immutable session snapshot. Selection is only probed for
// dictation in non-terminal windows.
func (c *Controller) capture(ctx context.Context, mode Mode) Context {
	window := c.inspector.Inspect(ctx)
	sessionCtx := Context{
		SessionID:   uuid.NewString(),
		Mode:        mode,
		IsTerminal:  window.IsTerminal,
		WindowClass: window.Class,
		WindowTitle: window.Title,
		StartedAt:   time.Now(),
	}

	if c.cfg.ProbeSelection && c.selection != nil && mode == ModeDictation && !window.IsTerminal {
		sessionCtx.SelectedText = c.selection.Capture(ctx, window.Address)
	}
	return sessionCtx
}

// Release stops recording and enqueues the final unit unless it is too short.
func (c *Controller) Release(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.release(ctx)
}

func (c *Controller) release(ctx context.Context) error {
	session, err := c.finish(fsm.EventRelease)
	if err != nil {
		return err
	}
	c.indicator.StopRecording(ctx)

	wav := c.recorder.Stop()
	if reason := c.discardReason(wav); reason != "" {
		c.logger.Info("final unit discarded", "session", session.ctx.SessionID, "reason", reason)
		return nil
	}
	c.emit(session, wav, true)
	return nil
}

// Cancel stops recording and drops the final tail. Segments already queued still run.
func (c *Controller) Cancel(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	session, err := c.finish(fsm.EventCancel)
	if err != nil {
		return err
	}
	_ = c.recorder.Stop()
	c.indicator.CancelRecording(ctx)
	c.logger.Info("recording cancelled", "session", session.ctx.SessionID)
	return nil
}

// Abort ends the active session after a capture failure, keeping buffered audio.
func (c *Controller) Abort(ctx context.Context, cause error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.logger.Error("audio capture failed", "error", cause)
	if c.State() != fsm.StateRecording {
		return
	}
	if err := c.release(ctx); err != nil {
		c.logger.Error("release after capture failure", "error", err)
	}
	c.indicator.ShowError(ctx, "Microphone unavailable")
}

func (c *Controller) finish(event fsm.Event) (*active, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != fsm.StateRecording || c.current == nil {
		return nil, ErrNotRecording
	}
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		return nil, err
	}
	session := c.current
	c.state = next
	c.current = nil
	return session, nil
}

func (c *Controller) discardReason(wav []byte) string {
	if len(wav) == 0 {
		return "empty"
	}
	duration, err := audio.WAVDuration(wav)
	if err != nil {
		return err.Error()
	}
	if duration < c.cfg.MinFinalDuration {
		return fmt.Sprintf("shorter than %s", c.cfg.MinFinalDuration)
	}
	return ""
}

// emit runs on the recorder's encode goroutine for segments and on the
// releasing goroutine for the final tail.
func (c *Controller) emit(session *active, wav []byte, final bool) {
	unit := session.unit(wav, final)
	if err := c.sink.Push(unit); err != nil {
		c.logger.Warn("unit dropped", "session", unit.SessionID, "index", unit.SegmentIndex, "error", err)
		return
	}
	c.metrics.UnitEnqueued(context.Background(), final)

	backlog := c.sink.Len()
	c.logger.Debug("unit enqueued",
		"session", unit.SessionID,
		"index", unit.SegmentIndex,
		"final", final,
		"bytes", len(wav),
		"selection", unit.SelectedText != "",
	)
	if backlog > 1 {
		c.logger.Info("queue backlog", "backlog", backlog)
	}
}

// toErrorAndReset transitions to error and back to idle best-effort.
func (c *Controller) toErrorAndReset() {
	_ = c.transition(fsm.EventFail)
	_ = c.transition(fsm.EventReset)
}

// Handle serves IPC commands.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.status("status")
	case ipc.CommandPress:
		mode, err := ParseMode(req.Mode)
		if err != nil {
			return c.failure(err)
		}
		if err := c.Press(ctx, mode); err != nil {
			return c.failure(err)
		}
		return c.status("recording started")
	case ipc.CommandRelease:
		if err := c.Release(ctx); err != nil {
			return c.failure(err)
		}
		return c.status("recording stopped")
	case ipc.CommandCancel:
		if err := c.Cancel(ctx); err != nil {
			return c.failure(err)
		}
		return c.status("recording cancelled")
	case ipc.CommandQuit:
		if c.quit == nil {
			return c.failure(errors.New("quit is not wired"))
		}
		c.quit()
		return c.status("shutting down")
	default:
		return c.failure(fmt.Errorf("unknown command: %s", req.Command))
	}
}

func (c *Controller) status(message string) ipc.Response {
	resp := ipc.Response{OK: true, State: string(c.State()), Message: message}
	c.fillCounters(&resp)
	return resp
}

func (c *Controller) failure(err error) ipc.Response {
	resp := ipc.Response{OK: false, State: string(c.State()), Error: err.Error()}
	c.fillCounters(&resp)
	return resp
}

func (c *Controller) fillCounters(resp *ipc.Response) {
	resp.Backlog = c.sink.Len()
	if c.stats != nil {
		resp.Processed = c.stats.Processed()
		resp.Failed = c.stats.Failed()
	}
}
