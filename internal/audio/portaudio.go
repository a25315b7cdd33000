package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// PortAudioSource records from the default PortAudio input device.
type PortAudioSource struct {
	sampleRate int
	logger     *slog.Logger

	framer *framer
	frames atomic.Int64
}

// NewPortAudioSource prepares a callback stream on the default input.
func NewPortAudioSource(sampleRate int, frameSize int, logger *slog.Logger) *PortAudioSource {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &PortAudioSource{
		sampleRate: sampleRate,
		logger:     logger,
		framer:     newFramer(frameSize),
	}
}

func (s *PortAudioSource) Name() string {
	return "portaudio:default"
}

// Run opens the default input stream and blocks until ctx is done.
func (s *PortAudioSource) Run(ctx context.Context, sink FrameSink) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	defer func() { _ = portaudio.Terminate() }()

	callback := func(in []float32) {
		n := s.framer.push(in, sink)
		s.frames.Add(int64(n))
	}
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(s.sampleRate), s.framer.size, callback)
	if err != nil {
		return fmt.Errorf("open portaudio stream: %w", err)
	}
	defer func() { _ = stream.Close() }()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start portaudio stream: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("audio capture started", "backend", "portaudio", "sample_rate", s.sampleRate)
	}

	<-ctx.Done()
	if err := stream.Stop(); err != nil {
		return fmt.Errorf("stop portaudio stream: %w", err)
	}
	return nil
}
