package audio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// FrameSink receives frames on the device callback goroutine. It must not block.
type FrameSink func(Frame)

// Source is a capture backend that feeds frames until ctx is done or the device fails.
type Source interface {
	Name() string
	Run(ctx context.Context, sink FrameSink) error
}

// SourceConfig selects and parameterizes a capture backend.
type SourceConfig struct {
	Backend    string
	Input      string
	Fallback   string
	SampleRate int
	FrameSize  int
}

// NewSource resolves the configured capture backend.
func NewSource(ctx context.Context, cfg SourceConfig, logger *slog.Logger) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "pulse":
		selection, err := SelectDevice(ctx, cfg.Input, cfg.Fallback)
		if err != nil {
			return nil, err
		}
		if selection.Warning != "" && logger != nil {
			logger.Warn("audio device fallback", "warning", selection.Warning)
		}
		return NewPulseSource(selection.Device, cfg.SampleRate, cfg.FrameSize, logger), nil
	case "portaudio":
		return NewPortAudioSource(cfg.SampleRate, cfg.FrameSize, logger), nil
	default:
		return nil, fmt.Errorf("unsupported audio backend %q", cfg.Backend)
	}
}

// framer slices arbitrary device buffers into fixed-size frames.
type framer struct {
	size int

	mu      sync.Mutex
	pending []float32
}

func newFramer(size int) *framer {
	if size <= 0 {
		size = DefaultFrameSize
	}
	return &framer{size: size}
}

// push appends samples and emits every complete frame. Each emitted frame owns
// its backing array.
func (f *framer) push(samples []float32, sink FrameSink) int {
	f.mu.Lock()
	f.pending = append(f.pending, samples...)
	var frames []Frame
	for len(f.pending) >= f.size {
		frame := make(Frame, f.size)
		copy(frame, f.pending[:f.size])
		f.pending = f.pending[f.size:]
		frames = append(frames, frame)
	}
	if len(f.pending) == 0 {
		f.pending = f.pending[:0:0]
	}
	f.mu.Unlock()

	for _, frame := range frames {
		sink(frame)
	}
	return len(frames)
}

// buffered reports how many samples wait for a complete frame.
func (f *framer) buffered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}
