package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Mode selects how a session's text is polished.
type Mode string

const (
	ModeDictation Mode = "dictation"
	ModeCommand   Mode = "command"
)

// ParseMode maps an IPC/hotkey mode name to a Mode. Empty means dictation.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ModeDictation:
		return ModeDictation, nil
	case ModeCommand:
		return ModeCommand, nil
	default:
		return "", fmt.Errorf("unknown mode %q", raw)
	}
}

// Context is captured once at press time and never mutated afterwards.
type Context struct {
	SessionID    string
	Mode         Mode
	IsTerminal   bool
	WindowClass  string
	WindowTitle  string
	SelectedText string
	StartedAt    time.Time
}

// Unit is one queued (audio, context) record: a mid-session segment or the final tail.
type Unit struct {
	SessionID    string
	SegmentIndex int
	Final        bool
	WAV          []byte
	Mode         Mode
	IsTerminal   bool
	WindowClass  string
	WindowTitle  string
	SelectedText string
	EnqueuedAt   time.Time
}

// active is the per-session state shared between the controller and the
// recorder's segment callback. The selection is handed to the first unit only.
type active struct {
	ctx Context

	mu        sync.Mutex
	next      int
	selection string
}

func newActive(ctx Context) *active {
	return &active{ctx: ctx, selection: ctx.SelectedText}
}

func (a *active) unit(wav []byte, final bool) Unit {
	a.mu.Lock()
	index := a.next
	a.next++
	selection := a.selection
	a.selection = ""
	a.mu.Unlock()

	return Unit{
		SessionID:    a.ctx.SessionID,
		SegmentIndex: index,
		Final:        final,
		WAV:          wav,
		Mode:         a.ctx.Mode,
		IsTerminal:   a.ctx.IsTerminal,
		WindowClass:  a.ctx.WindowClass,
		WindowTitle:  a.ctx.WindowTitle,
		SelectedText: selection,
		EnqueuedAt:   time.Now(),
	}
}
