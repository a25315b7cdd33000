package audio

import (
	"fmt"
	"log/slog"
	"sync"
)

// SegmentFunc receives one encoded mid-session segment.
type SegmentFunc func(wav []byte)

type encodeJob struct {
	frames  []Frame
	emit    SegmentFunc
	barrier chan struct{}
}

// encoder is the single goroutine that turns cut frame slices into WAV payloads
// and hands them to the session callback. Jobs are processed in submission order.
type encoder struct {
	sampleRate int
	logger     *slog.Logger

	mu     sync.Mutex
	jobs   []encodeJob
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newEncoder(sampleRate int, logger *slog.Logger) *encoder {
	e := &encoder{
		sampleRate: sampleRate,
		logger:     logger,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go e.run()
	return e
}

// submit queues a job without blocking. Safe to call from the device callback.
func (e *encoder) submit(job encodeJob) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	e.jobs = append(e.jobs, job)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return true
}

// flush blocks until every job submitted before the call has been emitted.
func (e *encoder) flush() {
	barrier := make(chan struct{})
	if !e.submit(encodeJob{barrier: barrier}) {
		return
	}
	<-barrier
}

// close drains outstanding jobs and stops the goroutine.
func (e *encoder) close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		<-e.done
		return
	}
	e.closed = true
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
	<-e.done
}

func (e *encoder) run() {
	defer close(e.done)
	for {
		job, ok, closed := e.next()
		if !ok {
			if closed {
				return
			}
			<-e.wake
			continue
		}
		e.handle(job)
	}
}

func (e *encoder) next() (encodeJob, bool, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.jobs) == 0 {
		e.jobs = nil
		return encodeJob{}, false, e.closed
	}
	job := e.jobs[0]
	e.jobs[0] = encodeJob{}
	e.jobs = e.jobs[1:]
	return job, true, e.closed
}

func (e *encoder) handle(job encodeJob) {
	if job.barrier != nil {
		close(job.barrier)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.log("segment emit panicked; segment dropped", fmt.Errorf("%v", r), len(job.frames))
		}
	}()

	payload, err := EncodeWAV(job.frames, e.sampleRate)
	if err != nil {
		e.log("segment encode failed; segment dropped", err, len(job.frames))
		return
	}
	if job.emit != nil {
		job.emit(payload)
	}
}

func (e *encoder) log(message string, err error, frames int) {
	if e.logger == nil {
		return
	}
	e.logger.Error(message, "error", err.Error(), "frames", frames)
}
