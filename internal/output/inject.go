package output

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rbright/parla/internal/config"
)

// Injector types text at the cursor by setting the clipboard and sending a
// paste shortcut.
type Injector struct {
	cfg       config.OutputConfig
	clipboard Clipboard
	keys      KeySender
	logger    *slog.Logger
}

// NewInjector builds an injector from output config.
func NewInjector(cfg config.OutputConfig, clipboard Clipboard, keys KeySender, logger *slog.Logger) *Injector {
	if clipboard == nil {
		clipboard = NewClipboard(cfg.ClipboardCmd.Argv)
	}
	if keys == nil {
		keys = NewKeySender(cfg.Keys)
	}
	return &Injector{cfg: cfg, clipboard: clipboard, keys: keys, logger: logger}
}

// Type writes text to the clipboard and optionally dispatches paste. Paste
// failures are logged; the clipboard keeps the text so the user can paste by hand.
func (i *Injector) Type(ctx context.Context, text string, isTerminal bool) error {
	if text == "" {
		return nil
	}
	if i.cfg.TrailingSpace {
		text += " "
	}

	clipboardCtx, clipboardCancel := context.WithTimeout(ctx, 2*time.Second)
	defer clipboardCancel()
	if err := i.clipboard.Write(clipboardCtx, text); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	if !i.cfg.Paste {
		return nil
	}

	if len(i.cfg.PasteCmd.Argv) > 0 {
		pasteCtx, pasteCancel := context.WithTimeout(ctx, 2*time.Second)
		defer pasteCancel()
		if err := runCommandWithInput(pasteCtx, i.cfg.PasteCmd.Argv, ""); err != nil {
			i.logPasteFailure(err)
		}
		return nil
	}

	shortcut := i.cfg.Shortcut
	if isTerminal && i.cfg.TerminalShortcut != "" {
		shortcut = i.cfg.TerminalShortcut
	}
	pasteCtx, pasteCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pasteCancel()
	if err := i.keys.SendShortcut(pasteCtx, shortcut, ""); err != nil {
		i.logPasteFailure(err)
	}
	return nil
}

// logPasteFailure records paste errors while preserving clipboard success semantics.
func (i *Injector) logPasteFailure(err error) {
	if i.logger == nil || err == nil {
		return
	}
	i.logger.Error("paste dispatch failed; clipboard remains set", "error", err.Error())
}
