package audio

import (
	"log/slog"
	"sync"
	"time"
)

// State is the recorder lifecycle state.
type State string

const (
	StateIdle      State = "idle"
	StateRecording State = "recording"
)

// RecorderConfig fixes the sample layout and segmentation thresholds of one recorder.
type RecorderConfig struct {
	SampleRate int
	FrameSize  int
	PreRoll    time.Duration
	Detector   DetectorConfig
}

// DefaultRecorderConfig mirrors the defaults of the config package.
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		SampleRate: DefaultSampleRate,
		FrameSize:  DefaultFrameSize,
		PreRoll:    500 * time.Millisecond,
		Detector:   NewDetectorConfig(0.01, 8*time.Second, time.Second, DefaultSampleRate, DefaultFrameSize),
	}
}

// Recorder owns the pre-roll ring and the active recording buffer.
//
// Write is called from the audio device callback. It only appends to in-memory
// slices under a mutex that is never held across I/O or encoding, and hands cut
// segments to a single encode goroutine without waiting for it.
type Recorder struct {
	cfg    RecorderConfig
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	ring     *Ring
	active   []Frame
	detector *Detector
	emit     SegmentFunc
	cuts     int

	enc *encoder
}

// NewRecorder builds an idle recorder and starts its encode goroutine.
func NewRecorder(cfg RecorderConfig, logger *slog.Logger) *Recorder {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.FrameSize <= 0 {
		cfg.FrameSize = DefaultFrameSize
	}
	return &Recorder{
		cfg:      cfg,
		logger:   logger,
		state:    StateIdle,
		ring:     NewRing(PreRollCapacity(cfg.PreRoll, cfg.SampleRate, cfg.FrameSize)),
		detector: NewDetector(cfg.Detector),
		enc:      newEncoder(cfg.SampleRate, logger),
	}
}

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Write accepts one frame from the capture source.
func (r *Recorder) Write(frame Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		r.ring.Push(frame)
		return
	}

	r.active = append(r.active, frame)
	cut := r.detector.Observe(frame)
	if !cut.Fire {
		return
	}

	n := len(r.active) - cut.Tail
	segment := r.active[:n:n]
	r.active = r.active[n:]
	if !cut.Voiced || n == 0 {
		return
	}
	r.cuts++
	r.enc.submit(encodeJob{frames: segment, emit: r.emit})
}

// Start moves Idle -> Recording, seeding the active buffer with the pre-roll.
// emit receives each mid-session segment. It returns false when already recording.
func (r *Recorder) Start(emit SegmentFunc) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRecording {
		return false
	}
	r.active = r.ring.Drain()
	r.detector.Reset(len(r.active))
	r.emit = emit
	r.cuts = 0
	r.state = StateRecording
	return true
}

// Stop moves Recording -> Idle and returns the remaining frames as a WAV
// payload. Segments cut before Stop are emitted before it returns. Stop on an
// idle recorder returns an empty payload.
func (r *Recorder) Stop() []byte {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return nil
	}
	frames := r.active
	cuts := r.cuts
	r.active = nil
	r.emit = nil
	r.state = StateIdle
	r.mu.Unlock()

	r.enc.flush()

	if sampleCount(frames) == 0 {
		return nil
	}
	payload, err := EncodeWAV(frames, r.cfg.SampleRate)
	if err != nil {
		if r.logger != nil {
			r.logger.Error("final payload encode failed", "error", err.Error(), "frames", len(frames))
		}
		return nil
	}
	if r.logger != nil {
		r.logger.Debug("recording stopped", "frames", len(frames), "segments", cuts)
	}
	return payload
}

// Close stops the encode goroutine after draining pending segments.
func (r *Recorder) Close() {
	r.enc.close()
}
