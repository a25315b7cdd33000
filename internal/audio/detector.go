package audio

import "time"

// DetectorConfig holds the segmentation thresholds, expressed in frames.
type DetectorConfig struct {
	// Threshold is the RMS level below which a frame counts as silent.
	Threshold float64
	// MinSegmentFrames must be exceeded before any cut can fire.
	MinSegmentFrames int
	// SilenceRunFrames is the number of consecutive silent frames that ends a segment.
	SilenceRunFrames int
}

// NewDetectorConfig converts durations into frame counts for one sample layout.
func NewDetectorConfig(threshold float64, minSegment, silenceRun time.Duration, sampleRate, frameSize int) DetectorConfig {
	silent := FramesFor(silenceRun.Seconds(), sampleRate, frameSize)
	if silent < 1 {
		silent = 1
	}
	return DetectorConfig{
		Threshold:        threshold,
		MinSegmentFrames: FramesFor(minSegment.Seconds(), sampleRate, frameSize),
		SilenceRunFrames: silent,
	}
}

// Cut describes the outcome of observing one frame.
type Cut struct {
	// Fire is true when the frame completes a segment.
	Fire bool
	// Tail is the number of trailing silent frames excluded from the segment.
	Tail int
	// Voiced is true when at least one frame since the previous cut was above threshold.
	Voiced bool
}

// Detector decides where to split an active recording. One instance per recorder.
type Detector struct {
	cfg       DetectorConfig
	sinceCut  int
	silentRun int
	voiced    bool
}

// NewDetector builds a detector with the given thresholds.
func NewDetector(cfg DetectorConfig) *Detector {
	if cfg.SilenceRunFrames < 1 {
		cfg.SilenceRunFrames = 1
	}
	return &Detector{cfg: cfg}
}

// Reset clears counters. seed is the number of frames already carried into the
// recording (the drained pre-roll).
func (d *Detector) Reset(seed int) {
	if seed < 0 {
		seed = 0
	}
	d.sinceCut = seed
	d.silentRun = 0
	d.voiced = false
}

// Observe feeds one frame and reports whether a cut fires after it.
func (d *Detector) Observe(frame Frame) Cut {
	d.sinceCut++
	if frame.RMS() < d.cfg.Threshold {
		d.silentRun++
	} else {
		d.silentRun = 0
		d.voiced = true
	}

	if d.sinceCut <= d.cfg.MinSegmentFrames || d.silentRun < d.cfg.SilenceRunFrames {
		return Cut{}
	}

	cut := Cut{Fire: true, Tail: d.silentRun, Voiced: d.voiced}
	d.sinceCut = 0
	d.silentRun = 0
	d.voiced = false
	return cut
}
