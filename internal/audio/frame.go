package audio

import "math"

const (
	// DefaultSampleRate is the capture rate used by every source and container.
	DefaultSampleRate = 16000
	// DefaultFrameSize is the number of samples delivered per device callback.
	DefaultFrameSize = 1024
)

// Frame is one fixed-size block of mono float samples in [-1, 1].
// A frame is never mutated after the device callback hands it over.
type Frame []float32

// RMS returns the root-mean-square energy of the frame.
func (f Frame) RMS() float64 {
	if len(f) == 0 {
		return 0
	}
	var sum float64
	for _, s := range f {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(f)))
}

// FramesFor converts a duration into a whole number of frames, rounding up.
func FramesFor(seconds float64, sampleRate int, frameSize int) int {
	if seconds <= 0 || sampleRate <= 0 || frameSize <= 0 {
		return 0
	}
	return int(math.Ceil(seconds * float64(sampleRate) / float64(frameSize)))
}

// sampleCount returns the total number of samples across frames.
func sampleCount(frames []Frame) int {
	n := 0
	for _, f := range frames {
		n += len(f)
	}
	return n
}
