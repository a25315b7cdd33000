package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rbright/parla/internal/audio"
	"github.com/rbright/parla/internal/foreground"
	"github.com/rbright/parla/internal/queue"
)

type fakeRecorder struct {
	mu      sync.Mutex
	emit    audio.SegmentFunc
	final   []byte
	startOK bool
	starts  atomic.Int32
	stops   atomic.Int32
}

func newFakeRecorder(final []byte) *fakeRecorder {
	return &fakeRecorder{final: final, startOK: true}
}

func (f *fakeRecorder) Start(emit audio.SegmentFunc) bool {
	f.starts.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emit = emit
	return f.startOK
}

func (f *fakeRecorder) Stop() []byte {
	f.stops.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emit = nil
	return f.final
}

func (f *fakeRecorder) segment(wav []byte) {
	f.mu.Lock()
	emit := f.emit
	f.mu.Unlock()
	emit(wav)
}

type fakeInspector struct {
	window foreground.Window
}

func (f fakeInspector) Inspect(context.Context) foreground.Window { return f.window }

type fakeProbe struct {
	text  string
	calls atomic.Int32
}

func (f *fakeProbe) Capture(context.Context, string) string {
	f.calls.Add(1)
	return f.text
}

type fakeIndicator struct {
	recording atomic.Int32
	stopped   atomic.Int32
	cancelled atomic.Int32
	errors    atomic.Int32
}

func (f *fakeIndicator) ShowRecording(context.Context)     { f.recording.Add(1) }
func (f *fakeIndicator) StopRecording(context.Context)     { f.stopped.Add(1) }
func (f *fakeIndicator) CancelRecording(context.Context)   { f.cancelled.Add(1) }
func (f *fakeIndicator) ShowError(context.Context, string) { f.errors.Add(1) }

type fakeStats struct{}

func (fakeStats) Processed() int64 { return 4 }
func (fakeStats) Failed() int64    { return 1 }

type closedSink struct{}

func (closedSink) Push(Unit) error { return queue.ErrClosed }
func (closedSink) Len() int        { return 0 }

func wavOf(t *testing.T, d time.Duration) []byte {
	t.Helper()
	samples := int(d.Seconds() * audio.DefaultSampleRate)
	payload, err := audio.EncodeWAV([]audio.Frame{make(audio.Frame, samples)}, audio.DefaultSampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV() error = %v", err)
	}
	return payload
}

func drain(t *testing.T, q *queue.Queue[Unit]) []Unit {
	t.Helper()
	q.Shutdown()
	var units []Unit
	for {
		unit, err := q.Pop(context.Background())
		if errors.Is(err, queue.ErrClosed) {
			return units
		}
		if err != nil {
			t.Fatalf("Pop() error = %v", err)
		}
		units = append(units, unit)
	}
}
