package output

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
	"github.com/rbright/parla/internal/hypr"
)

// KeySender delivers a "MODS,KEY" shortcut to a window. An empty address means
// the focused window.
type KeySender interface {
	SendShortcut(ctx context.Context, shortcut string, address string) error
}

// NewKeySender returns the sender for backend ("hypr" or "uinput").
func NewKeySender(backend string) KeySender {
	if backend == "uinput" {
		return &uinputKeys{}
	}
	return hyprKeys{}
}

type hyprKeys struct{}

func (hyprKeys) SendShortcut(ctx context.Context, shortcut string, address string) error {
	if strings.TrimSpace(address) == "" {
		window, err := hypr.QueryActiveWindowWithRetry(ctx, 5, 10*time.Millisecond)
		if err != nil {
			return err
		}
		address = window.Address
	}
	return hypr.SendShortcutTo(ctx, shortcut, address)
}

// Shortcut is a parsed "MODS,KEY" chord.
type Shortcut struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Key   string
}

// ParseShortcut parses the hyprctl-style chord syntax, e.g. "CTRL SHIFT,V".
func ParseShortcut(raw string) (Shortcut, error) {
	mods, key, ok := strings.Cut(strings.TrimSpace(raw), ",")
	if !ok {
		return Shortcut{}, fmt.Errorf("shortcut %q must look like MODS,KEY", raw)
	}
	s := Shortcut{Key: strings.ToUpper(strings.TrimSpace(key))}
	if s.Key == "" {
		return Shortcut{}, fmt.Errorf("shortcut %q has no key", raw)
	}
	for _, mod := range strings.Fields(strings.ToUpper(mods)) {
		switch mod {
		case "CTRL", "CONTROL":
			s.Ctrl = true
		case "SHIFT":
			s.Shift = true
		case "ALT":
			s.Alt = true
		default:
			return Shortcut{}, fmt.Errorf("shortcut %q: unsupported modifier %q", raw, mod)
		}
	}
	return s, nil
}

var uinputKeyCodes = map[string]int{
	"C": keybd_event.VK_C,
	"V": keybd_event.VK_V,
	"X": keybd_event.VK_X,
}

// uinputKeys injects key events through a virtual uinput keyboard.
type uinputKeys struct {
	mu sync.Mutex
	kb *keybd_event.KeyBonding
}

func (u *uinputKeys) SendShortcut(ctx context.Context, raw string, _ string) error {
	shortcut, err := ParseShortcut(raw)
	if err != nil {
		return err
	}
	code, ok := uinputKeyCodes[shortcut.Key]
	if !ok {
		return fmt.Errorf("shortcut key %q is not supported by the uinput backend", shortcut.Key)
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.kb == nil {
		kb, err := keybd_event.NewKeyBonding()
		if err != nil {
			return fmt.Errorf("open uinput keyboard: %w", err)
		}
		// The virtual device needs a moment before the compositor accepts events.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
		u.kb = &kb
	}

	u.kb.Clear()
	u.kb.HasCTRL(shortcut.Ctrl)
	u.kb.HasSHIFT(shortcut.Shift)
	u.kb.HasALT(shortcut.Alt)
	u.kb.SetKeys(code)
	if err := u.kb.Launching(); err != nil {
		return fmt.Errorf("send %s: %w", raw, err)
	}
	return nil
}
