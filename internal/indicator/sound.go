package indicator

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueCancel
	cueError
)

const (
	cueRate  = 16000
	cueLevel = 0.18
	cueGap   = 22 * time.Millisecond
	cueRamp  = 5 * time.Millisecond
)

// note is one sine tone in a cue. Zero hz is a rest.
type note struct {
	hz  float64
	dur time.Duration
}

// Rising pairs mean "go", falling pairs mean "stop", a repeated low tone means failure.
var cueScores = map[cueKind][]note{
	cueStart:    {{880, 70 * time.Millisecond}, {1175, 70 * time.Millisecond}},
	cueStop:     {{620, 120 * time.Millisecond}},
	cueComplete: {{740, 65 * time.Millisecond}, {988, 90 * time.Millisecond}},
	cueCancel:   {{480, 75 * time.Millisecond}, {360, 90 * time.Millisecond}},
	cueError:    {{330, 110 * time.Millisecond}, {330, 110 * time.Millisecond}},
}

var (
	renderOnce sync.Once
	rendered   map[cueKind][]int16
)

// cuePCM returns the rendered samples for kind, or nil for an unknown cue.
func cuePCM(kind cueKind) []int16 {
	renderOnce.Do(func() {
		rendered = make(map[cueKind][]int16, len(cueScores))
		for k, score := range cueScores {
			rendered[k] = render(score)
		}
	})
	return rendered[kind]
}

// render concatenates notes with a short rest between them.
func render(score []note) []int16 {
	var pcm []int16
	for i, n := range score {
		if i > 0 {
			pcm = append(pcm, make([]int16, sampleCount(cueGap))...)
		}
		pcm = append(pcm, tone(n)...)
	}
	return pcm
}

// tone renders one note with linear fade in and out to avoid clicks.
func tone(n note) []int16 {
	count := sampleCount(n.dur)
	if count == 0 || n.hz <= 0 {
		return make([]int16, count)
	}
	ramp := min(max(count/10, 1), sampleCount(cueRamp))

	pcm := make([]int16, count)
	step := 2 * math.Pi * n.hz / cueRate
	for i := range pcm {
		gain := min(1, float64(i)/float64(ramp), float64(count-1-i)/float64(ramp))
		pcm[i] = int16(math.Round(math.Sin(step*float64(i)) * cueLevel * gain * math.MaxInt16))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueRate))
}

// playPulseCue plays kind on the default pulse sink and blocks until it drains.
func playPulseCue(kind cueKind) error {
	pcm := cuePCM(kind)
	if len(pcm) == 0 {
		return nil
	}

	client, err := pulse.NewClient(pulse.ClientApplicationName("parla"))
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}
	defer client.Close()

	stream, err := client.NewPlayback(
		pulse.Int16Reader(pcmReader(pcm)),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(cueRate),
		pulse.PlaybackLatency(0.02),
		pulse.PlaybackMediaName("parla cue"),
	)
	if err != nil {
		return fmt.Errorf("open cue playback: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play cue: %w", err)
	}
	return nil
}

// pcmReader feeds pcm to a pulse stream, reporting EndOfData with the last chunk.
func pcmReader(pcm []int16) func([]int16) (int, error) {
	return func(buf []int16) (int, error) {
		n := copy(buf, pcm)
		pcm = pcm[n:]
		if len(pcm) == 0 {
			return n, pulse.EndOfData
		}
		return n, nil
	}
}
