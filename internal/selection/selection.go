// Package selection captures the text selected in the focused window at press time.
package selection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rbright/parla/internal/output"
)

// Probe sends a copy shortcut and waits for the clipboard generation to change.
// Linux exposes no clipboard sequence number, so Capture first writes a
// unique marker and the generation is a hash of the clipboard contents. Any
// copy, even of text equal to the previous clipboard, then changes it. The
// previous contents are put back when nothing was copied.
type Probe struct {
	clipboard output.Clipboard
	keys      output.KeySender
	shortcut  string
	timeout   time.Duration
	poll      time.Duration
	logger    *slog.Logger

	seq atomic.Uint64
}

// Config parameterizes a Probe.
type Config struct {
	Shortcut     string
	Timeout      time.Duration
	PollInterval time.Duration
}

// NewProbe builds a probe over the given clipboard and key sender.
func NewProbe(cfg Config, clipboard output.Clipboard, keys output.KeySender, logger *slog.Logger) *Probe {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 150 * time.Millisecond
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Millisecond
	}
	if strings.TrimSpace(cfg.Shortcut) == "" {
		cfg.Shortcut = "CTRL,C"
	}
	return &Probe{
		clipboard: clipboard,
		keys:      keys,
		shortcut:  cfg.Shortcut,
		timeout:   cfg.Timeout,
		poll:      cfg.PollInterval,
		logger:    logger,
	}
}

// Capture returns the selected text in the window at address, or "" when
// nothing was copied before the timeout. It never fails.
func (p *Probe) Capture(ctx context.Context, address string) string {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	previous, err := p.clipboard.Read(ctx)
	if err != nil {
		p.debug("selection capture: clipboard read failed", err)
	}
	before := xxhash.Sum64String(previous)
	marked := false
	if err := p.clipboard.Write(ctx, p.marker()); err != nil {
		p.debug("selection capture: clipboard marker failed", err)
	} else {
		marked = true
	}

	text, ok := p.await(ctx, address, marked, before)
	if !ok && marked {
		p.restore(ctx, previous)
	}
	return text
}

// await sends the copy shortcut and polls until the clipboard generation moves
// away from the marker (or from before when no marker was written).
func (p *Probe) await(ctx context.Context, address string, marked bool, before uint64) (string, bool) {
	if marked {
		text, err := p.clipboard.Read(ctx)
		if err != nil {
			return "", false
		}
		before = xxhash.Sum64String(text)
	}

	if err := p.keys.SendShortcut(ctx, p.shortcut, address); err != nil {
		p.debug("selection capture: copy shortcut failed", err)
		return "", false
	}

	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", false
		case <-ticker.C:
		}

		text, err := p.clipboard.Read(ctx)
		if err != nil {
			continue
		}
		if xxhash.Sum64String(text) != before {
			return strings.TrimSpace(text), true
		}
	}
}

func (p *Probe) marker() string {
	return fmt.Sprintf("parla-selection-%d-%x", p.seq.Add(1), time.Now().UnixNano())
}

// restore puts the saved clipboard back. ctx is usually expired by now.
func (p *Probe) restore(ctx context.Context, previous string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.clipboard.Write(ctx, previous); err != nil {
		p.debug("selection capture: clipboard restore failed", err)
	}
}

func (p *Probe) debug(message string, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Debug(message, "error", err.Error())
}
