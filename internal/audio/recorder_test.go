package audio

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testRecorder(t *testing.T) *Recorder {
	t.Helper()
	r := NewRecorder(RecorderConfig{
		SampleRate: DefaultSampleRate,
		FrameSize:  testFrameSize,
		PreRoll:    50 * time.Millisecond,
		Detector:   testDetectorConfig(),
	}, nil)
	t.Cleanup(r.Close)
	return r
}

type segmentLog struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (l *segmentLog) emit(payload []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.payloads = append(l.payloads, payload)
}

func (l *segmentLog) all() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]byte(nil), l.payloads...)
}

func samplesOf(t *testing.T, payload []byte) []float32 {
	t.Helper()
	samples, rate, err := DecodeWAV(payload)
	require.NoError(t, err)
	require.Equal(t, DefaultSampleRate, rate)
	return samples
}

func TestRecorderStartStopLifecycle(t *testing.T) {
	r := testRecorder(t)
	require.Equal(t, StateIdle, r.State())
	require.Nil(t, r.Stop())

	require.True(t, r.Start(nil))
	require.Equal(t, StateRecording, r.State())
	require.False(t, r.Start(nil))

	r.Write(loudFrame())
	require.NotEmpty(t, r.Stop())
	require.Equal(t, StateIdle, r.State())
	require.Nil(t, r.Stop())
}

func TestRecorderFinalIncludesPreRoll(t *testing.T) {
	r := testRecorder(t)

	// 50ms at 160-sample frames keeps 5+1 frames of pre-roll.
	for i := 0; i < 10; i++ {
		frame := make(Frame, testFrameSize)
		frame[0] = float32(i) / 100
		r.Write(frame)
	}
	require.True(t, r.Start(nil))
	r.Write(loudFrame())

	samples := samplesOf(t, r.Stop())
	require.Len(t, samples, 7*testFrameSize)
	require.InDelta(t, 0.04, samples[0], 1e-3)
	require.InDelta(t, 0.5, samples[6*testFrameSize], 1e-3)
}

func TestRecorderEmitsSegmentBeforeStopReturns(t *testing.T) {
	r := testRecorder(t)
	log := &segmentLog{}
	require.True(t, r.Start(log.emit))

	for i := 0; i < 105; i++ {
		r.Write(loudFrame())
	}
	for i := 0; i < 30; i++ {
		r.Write(silentFrame())
	}
	for i := 0; i < 20; i++ {
		r.Write(loudFrame())
	}

	final := r.Stop()
	segments := log.all()
	require.Len(t, segments, 1)
	require.Len(t, samplesOf(t, segments[0]), 105*testFrameSize)

	// The silent tail stays with the next unit.
	require.Len(t, samplesOf(t, final), 50*testFrameSize)
}

func TestRecorderShortUtteranceNeverCuts(t *testing.T) {
	r := NewRecorder(RecorderConfig{
		SampleRate: DefaultSampleRate,
		FrameSize:  100,
		Detector:   NewDetectorConfig(0.01, 8*time.Second, time.Second, DefaultSampleRate, 100),
	}, nil)
	t.Cleanup(r.Close)

	log := &segmentLog{}
	require.True(t, r.Start(log.emit))
	loud := make(Frame, 100)
	for i := range loud {
		loud[i] = 0.3
	}
	for i := 0; i < 80; i++ {
		r.Write(loud)
	}
	for i := 0; i < 7; i++ {
		r.Write(make(Frame, 100))
	}

	final := r.Stop()
	require.Empty(t, log.all())
	require.Len(t, samplesOf(t, final), 87*100)
}

func TestRecorderDropsUnvoicedCut(t *testing.T) {
	r := testRecorder(t)
	log := &segmentLog{}
	require.True(t, r.Start(log.emit))

	for i := 0; i < 140; i++ {
		r.Write(silentFrame())
	}
	for i := 0; i < 5; i++ {
		r.Write(loudFrame())
	}

	final := r.Stop()
	require.Empty(t, log.all())
	require.NotEmpty(t, final)
}

func TestRecorderSegmentsKeepOrder(t *testing.T) {
	r := testRecorder(t)
	log := &segmentLog{}
	require.True(t, r.Start(log.emit))

	for seg := 0; seg < 3; seg++ {
		level := float32(seg+1) / 10
		for i := 0; i < 105; i++ {
			frame := make(Frame, testFrameSize)
			for j := range frame {
				frame[j] = level
			}
			r.Write(frame)
		}
		for i := 0; i < 30; i++ {
			r.Write(silentFrame())
		}
	}

	_ = r.Stop()
	segments := log.all()
	require.Len(t, segments, 3)
	for i, payload := range segments {
		samples := samplesOf(t, payload)
		require.InDelta(t, float32(i+1)/10, samples[len(samples)-1], 1e-3)
	}
}

func TestRecorderEmitPanicDoesNotStopEncoder(t *testing.T) {
	r := testRecorder(t)
	calls := 0
	require.True(t, r.Start(func([]byte) {
		calls++
		panic("boom")
	}))

	for seg := 0; seg < 2; seg++ {
		for i := 0; i < 105; i++ {
			r.Write(loudFrame())
		}
		for i := 0; i < 30; i++ {
			r.Write(silentFrame())
		}
	}
	_ = r.Stop()
	require.Equal(t, 2, calls)
}

func TestFramerSlicesIntoFixedFrames(t *testing.T) {
	f := newFramer(4)
	var got []Frame
	sink := func(frame Frame) { got = append(got, frame) }

	require.Equal(t, 0, f.push([]float32{1, 2, 3}, sink))
	require.Equal(t, 3, f.buffered())
	require.Equal(t, 2, f.push([]float32{4, 5, 6, 7, 8, 9}, sink))
	require.Equal(t, 1, f.buffered())
	require.Equal(t, []Frame{{1, 2, 3, 4}, {5, 6, 7, 8}}, got)

	got[0][0] = 42
	require.Equal(t, 1, f.push([]float32{10, 11, 12}, sink))
	require.Equal(t, Frame{9, 10, 11, 12}, got[2])
}
