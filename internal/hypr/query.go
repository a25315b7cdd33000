package hypr

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rbright/parla/internal/retry"
)

// ActiveWindow contains the fields needed for terminal classification,
// profile matching, and paste targeting.
type ActiveWindow struct {
	Address      string `json:"address"`
	Class        string `json:"class"`
	InitialClass string `json:"initialClass"`
	Title        string `json:"title"`
	PID          int    `json:"pid"`
}

// QueryActiveWindow fetches and validates the active-window contract from hyprctl.
func QueryActiveWindow(ctx context.Context) (ActiveWindow, error) {
	output, err := hyprctl(ctx, "-j", "activewindow")
	if err != nil {
		return ActiveWindow{}, err
	}

	var window ActiveWindow
	if err := json.Unmarshal(output, &window); err != nil {
		return ActiveWindow{}, fmt.Errorf("decode hyprctl activewindow json: %w", err)
	}
	window.Address = strings.TrimSpace(window.Address)
	window.Class = strings.TrimSpace(window.Class)
	window.InitialClass = strings.TrimSpace(window.InitialClass)
	window.Title = strings.TrimSpace(window.Title)
	if window.Address == "" {
		return ActiveWindow{}, fmt.Errorf("hyprctl activewindow returned empty address")
	}
	return window, nil
}

// QueryActiveWindowWithRetry retries the query, which fails briefly while focus changes.
func QueryActiveWindowWithRetry(ctx context.Context, attempts int, delay time.Duration) (ActiveWindow, error) {
	policy := retry.Policy{
		Attempts:  attempts,
		Delay:     delay,
		Retryable: func(error) bool { return true },
	}
	window, err := retry.Value(ctx, policy, QueryActiveWindow)
	if err != nil {
		return ActiveWindow{}, fmt.Errorf("resolve active window: %w", err)
	}
	return window, nil
}

// SendShortcut sends a literal hyprctl sendshortcut payload.
func SendShortcut(ctx context.Context, shortcut string) error {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return fmt.Errorf("sendshortcut requires a non-empty payload")
	}
	return dispatch(ctx, "sendshortcut", shortcut)
}

// SendShortcutTo targets shortcut ("MODS,KEY") at one window address.
func SendShortcutTo(ctx context.Context, shortcut string, address string) error {
	payload, err := BuildShortcut(shortcut, address)
	if err != nil {
		return err
	}
	return SendShortcut(ctx, payload)
}

// BuildShortcut renders the sendshortcut argument for a window address.
func BuildShortcut(shortcut string, address string) (string, error) {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return "", fmt.Errorf("shortcut cannot be empty")
	}
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("active window address is required")
	}
	return fmt.Sprintf("%s,address:%s", shortcut, address), nil
}

// Notify sends a Hyprland notification payload.
func Notify(ctx context.Context, icon int, timeoutMS int, color string, text string) error {
	if strings.TrimSpace(color) == "" {
		color = "rgb(89b4fa)"
	}
	return dispatch(
		ctx,
		"notify",
		strconv.Itoa(icon),
		strconv.Itoa(timeoutMS),
		color,
		text,
	)
}

// DismissNotify dismisses active Hyprland notifications.
func DismissNotify(ctx context.Context) error {
	return dispatch(ctx, "dismissnotify")
}
