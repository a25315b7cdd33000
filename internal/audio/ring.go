package audio

import "time"

// Ring is a fixed-capacity FIFO of the most recent frames. It is not safe for
// concurrent use; the Recorder guards it.
type Ring struct {
	frames []Frame
	start  int
	size   int
}

// PreRollCapacity returns ceil(preRoll * sampleRate / frameSize) + 1.
func PreRollCapacity(preRoll time.Duration, sampleRate int, frameSize int) int {
	return FramesFor(preRoll.Seconds(), sampleRate, frameSize) + 1
}

// NewRing allocates a ring holding at most capacity frames.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{frames: make([]Frame, capacity)}
}

// Cap reports the ring capacity.
func (r *Ring) Cap() int {
	return len(r.frames)
}

// Len reports how many frames are buffered.
func (r *Ring) Len() int {
	return r.size
}

// Push appends a frame, evicting the oldest one once the ring is full.
func (r *Ring) Push(frame Frame) {
	capacity := len(r.frames)
	if r.size < capacity {
		r.frames[(r.start+r.size)%capacity] = frame
		r.size++
		return
	}
	r.frames[r.start] = frame
	r.start = (r.start + 1) % capacity
}

// Drain removes and returns every buffered frame, oldest first.
func (r *Ring) Drain() []Frame {
	out := make([]Frame, r.size)
	capacity := len(r.frames)
	for i := 0; i < r.size; i++ {
		idx := (r.start + i) % capacity
		out[i] = r.frames[idx]
		r.frames[idx] = nil
	}
	r.start = 0
	r.size = 0
	return out
}
