// Package audio captures microphone frames, keeps the pre-roll ring, splits
// recordings on sustained silence, and encodes WAV payloads.
package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jfreymuth/pulse"
)

// PulseSource records float frames from one Pulse input source.
type PulseSource struct {
	device     Device
	sampleRate int
	logger     *slog.Logger

	framer  *framer
	stopped atomic.Bool
	frames  atomic.Int64
}

// NewPulseSource prepares a mono record stream for device.
func NewPulseSource(device Device, sampleRate int, frameSize int, logger *slog.Logger) *PulseSource {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &PulseSource{
		device:     device,
		sampleRate: sampleRate,
		logger:     logger,
		framer:     newFramer(frameSize),
	}
}

// Name identifies the backend and device in logs.
func (s *PulseSource) Name() string {
	return "pulse:" + s.device.ID
}

// Device returns the selected input device.
func (s *PulseSource) Device() Device {
	return s.device
}

// FramesCaptured reports how many complete frames reached the sink.
func (s *PulseSource) FramesCaptured() int64 {
	return s.frames.Load()
}

// Run streams frames into sink until ctx is cancelled or the stream fails.
func (s *PulseSource) Run(ctx context.Context, sink FrameSink) error {
	client, err := dialPulse()
	if err != nil {
		return err
	}
	defer client.Close()

	source, err := client.SourceByID(s.device.ID)
	if err != nil {
		return fmt.Errorf("resolve source %q: %w", s.device.ID, err)
	}

	writer := pulse.Float32Writer(func(samples []float32) (int, error) {
		return s.onSamples(samples, sink)
	})
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(s.sampleRate),
		pulse.RecordBufferFragmentSize(uint32(s.framer.size*4)),
		pulse.RecordMediaName("parla dictation"),
	)
	if err != nil {
		return fmt.Errorf("create pulse record stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	if s.logger != nil {
		s.logger.Info("audio capture started", "backend", "pulse", "device", s.device.ID, "sample_rate", s.sampleRate)
	}

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.stopped.Store(true)
			stream.Stop()
			return nil
		case <-ticker.C:
			if stream.Running() {
				continue
			}
			if err := stream.Error(); err != nil {
				return fmt.Errorf("pulse record stream: %w", err)
			}
			return errors.New("pulse record stream stopped unexpectedly")
		}
	}
}

// onSamples is the Pulse callback. It returns io.EOF once capture is stopping.
func (s *PulseSource) onSamples(samples []float32, sink FrameSink) (int, error) {
	if s.stopped.Load() {
		return 0, io.EOF
	}
	if len(samples) == 0 {
		return 0, nil
	}
	n := s.framer.push(samples, sink)
	s.frames.Add(int64(n))
	return len(samples), nil
}
