package session

import (
	"context"
	"errors"

	"github.com/rbright/parla/internal/audio"
	"github.com/rbright/parla/internal/foreground"
)

var (
	// ErrNotRecording is returned by Release and Cancel without an active session.
	ErrNotRecording = errors.New("not recording")
	// ErrAlreadyRecording is returned by Press while a session is active.
	ErrAlreadyRecording = errors.New("already recording")
)

// Recorder is the capture surface the controller drives.
type Recorder interface {
	Start(emit audio.SegmentFunc) bool
	Stop() []byte
}

// Inspector snapshots the focused window.
type Inspector interface {
	Inspect(ctx context.Context) foreground.Window
}

// SelectionProbe copies the current selection; "" means none.
type SelectionProbe interface {
	Capture(ctx context.Context, address string) string
}

// Sink receives units in emission order.
type Sink interface {
	Push(Unit) error
	Len() int
}

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowRecording(context.Context)
	StopRecording(context.Context)
	CancelRecording(context.Context)
	ShowError(context.Context, string)
}

// Stats exposes worker counters for status replies.
type Stats interface {
	Processed() int64
	Failed() int64
}

// Metrics counts enqueued units.
type Metrics interface {
	UnitEnqueued(ctx context.Context, final bool)
}

type noopIndicator struct{}

func (noopIndicator) ShowRecording(context.Context)     {}
func (noopIndicator) StopRecording(context.Context)     {}
func (noopIndicator) CancelRecording(context.Context)   {}
func (noopIndicator) ShowError(context.Context, string) {}

type noopInspector struct{}

func (noopInspector) Inspect(context.Context) foreground.Window { return foreground.Window{} }

type noopMetrics struct{}

func (noopMetrics) UnitEnqueued(context.Context, bool) {}
