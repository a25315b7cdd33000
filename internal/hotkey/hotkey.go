// Package hotkey maps global push-to-talk key events onto the session controller.
package hotkey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	hook "github.com/robotn/gohook"

	"github.com/rbright/parla/internal/config"
	"github.com/rbright/parla/internal/session"
)

// Controller is the subset of session.Controller the listener drives.
type Controller interface {
	Press(ctx context.Context, mode session.Mode) error
	Release(ctx context.Context) error
}

// Listener turns key hold/release of the configured keys into Press/Release.
// Only the key that started a recording can end it.
type Listener struct {
	keys   map[uint16]session.Mode
	ctl    Controller
	logger *slog.Logger

	mu   sync.Mutex
	held uint16
}

// New resolves the configured key names.
func New(cfg config.HotkeyConfig, ctl Controller, logger *slog.Logger) (*Listener, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	keys := make(map[uint16]session.Mode, 2)
	dictation, err := KeyCode(cfg.Dictation)
	if err != nil {
		return nil, fmt.Errorf("hotkey.dictation: %w", err)
	}
	keys[dictation] = session.ModeDictation

	if strings.TrimSpace(cfg.Command) != "" {
		command, err := KeyCode(cfg.Command)
		if err != nil {
			return nil, fmt.Errorf("hotkey.command: %w", err)
		}
		if command == dictation {
			return nil, errors.New("hotkey.dictation and hotkey.command resolve to the same key")
		}
		keys[command] = session.ModeCommand
	}

	return &Listener{keys: keys, ctl: ctl, logger: logger}, nil
}

// sideKeys names left/right modifiers that gohook's table lacks or only
// knows by their generic name.
var sideKeys = map[string]uint16{
	"rctrl": 3613, "ctrl_r": 3613,
	"lctrl": 29, "ctrl_l": 29,
	"ralt": 3640, "alt_r": 3640,
	"lalt": 56, "alt_l": 56,
	"rshift": 54, "shift_r": 54,
	"lshift": 42, "shift_l": 42,
}

// KeyCode resolves a key name ("rctrl", "f9") or a raw numeric keycode.
func KeyCode(name string) (uint16, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, errors.New("key name is empty")
	}
	if n, err := strconv.ParseUint(name, 10, 16); err == nil {
		return uint16(n), nil
	}
	if code, ok := sideKeys[name]; ok {
		return code, nil
	}
	code, ok := hook.Keycode[name]
	if !ok {
		return 0, fmt.Errorf("unknown key %q", name)
	}
	return code, nil
}

// Run consumes global key events until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	events := hook.Start()
	defer hook.End()
	l.logger.Info("hotkey listener started", "keys", len(l.keys))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return errors.New("hotkey event stream closed")
			}
			l.dispatch(ctx, ev)
		}
	}
}

func (l *Listener) dispatch(ctx context.Context, ev hook.Event) {
	mode, ok := l.keys[ev.Keycode]
	if !ok {
		return
	}

	switch ev.Kind {
	case hook.KeyHold, hook.KeyDown:
		l.mu.Lock()
		if l.held != 0 {
			// Auto-repeat, or the other trigger while recording.
			l.mu.Unlock()
			return
		}
		l.held = ev.Keycode
		l.mu.Unlock()

		if err := l.ctl.Press(ctx, mode); err != nil {
			if !errors.Is(err, session.ErrAlreadyRecording) {
				l.logger.Error("hotkey press failed", "mode", mode, "error", err)
			}
			l.clear(ev.Keycode)
		}
	case hook.KeyUp:
		if !l.clear(ev.Keycode) {
			return
		}
		if err := l.ctl.Release(ctx); err != nil && !errors.Is(err, session.ErrNotRecording) {
			l.logger.Error("hotkey release failed", "error", err)
		}
	}
}

// clear releases the held key when it matches code.
func (l *Listener) clear(code uint16) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held != code {
		return false
	}
	l.held = 0
	return true
}
