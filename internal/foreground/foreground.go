// Package foreground identifies the focused window at press time.
package foreground

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/rbright/parla/internal/config"
	"github.com/rbright/parla/internal/hypr"
)

// Window is the best-effort snapshot of the focused window.
type Window struct {
	Address    string
	Class      string
	Title      string
	IsTerminal bool
}

// Inspector returns the focused window. It never fails; unknown fields are empty.
type Inspector interface {
	Inspect(ctx context.Context) Window
}

// New builds the inspector for cfg.Backend.
func New(cfg config.ForegroundConfig, logger *slog.Logger) Inspector {
	classes := cfg.TerminalClasses
	if len(classes) == 0 {
		classes = config.DefaultTerminalClasses
	}
	base := inspector{classes: classes, logger: logger, timeout: 300 * time.Millisecond}

	switch cfg.Backend {
	case "x11":
		base.query = queryX11
	case "none":
		base.query = nil
	default:
		base.query = queryHypr
	}
	return base
}

type queryFunc func(context.Context) (Window, error)

type inspector struct {
	query   queryFunc
	classes []string
	logger  *slog.Logger
	timeout time.Duration
}

func (i inspector) Inspect(ctx context.Context) Window {
	if i.query == nil {
		return Window{}
	}
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	window, err := i.query(ctx)
	if err != nil {
		if i.logger != nil {
			i.logger.Debug("foreground inspect failed", "error", err.Error())
		}
		return Window{}
	}
	window.IsTerminal = IsTerminal(window.Class, i.classes)
	return window
}

// IsTerminal reports whether class names a terminal emulator.
func IsTerminal(class string, classes []string) bool {
	class = strings.ToLower(strings.TrimSpace(class))
	if class == "" {
		return false
	}
	return slices.Contains(classes, class)
}

func queryHypr(ctx context.Context) (Window, error) {
	active, err := hypr.QueryActiveWindow(ctx)
	if err != nil {
		return Window{}, err
	}
	class := active.Class
	if class == "" {
		class = active.InitialClass
	}
	return Window{Address: active.Address, Class: class, Title: active.Title}, nil
}

func queryX11(ctx context.Context) (Window, error) {
	id, err := xdotool(ctx, "getactivewindow")
	if err != nil {
		return Window{}, err
	}
	title, err := xdotool(ctx, "getwindowname", id)
	if err != nil {
		return Window{}, err
	}
	class, err := xdotool(ctx, "getwindowclassname", id)
	if err != nil {
		return Window{}, err
	}
	return Window{Address: id, Class: class, Title: title}, nil
}

func xdotool(ctx context.Context, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, "xdotool", args...).CombinedOutput()
	trimmed := strings.TrimSpace(string(out))
	if err != nil {
		if trimmed == "" {
			return "", fmt.Errorf("xdotool %v failed: %w", args, err)
		}
		return "", fmt.Errorf("xdotool %v failed: %w (%s)", args, err, trimmed)
	}
	return trimmed, nil
}
