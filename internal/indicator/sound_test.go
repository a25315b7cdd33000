package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEveryCueRenders(t *testing.T) {
	for _, kind := range []cueKind{cueStart, cueStop, cueComplete, cueCancel, cueError} {
		require.NotEmpty(t, cuePCM(kind), "cue %d", kind)
	}
	require.Nil(t, cuePCM(cueKind(99)))
}

func TestRenderInsertsRestBetweenNotes(t *testing.T) {
	n := note{hz: 440, dur: 50 * time.Millisecond}
	got := render([]note{n, n})
	require.Len(t, got, 2*800+sampleCount(cueGap))
}

func TestToneFadesAtBothEnds(t *testing.T) {
	pcm := tone(note{hz: 1000, dur: 100 * time.Millisecond})
	require.Len(t, pcm, 1600)
	require.Zero(t, pcm[0])
	require.Zero(t, pcm[len(pcm)-1])

	peak := int16(0)
	for _, s := range pcm {
		peak = max(peak, s)
	}
	require.InDelta(t, cueLevel*32767, float64(peak), 200)
}

func TestToneRestIsSilent(t *testing.T) {
	rest := tone(note{dur: 10 * time.Millisecond})
	require.Len(t, rest, 160)
	for _, s := range rest {
		require.Zero(t, s)
	}
	require.Empty(t, tone(note{hz: 440}))
}

func TestPCMReaderSignalsEndWithLastChunk(t *testing.T) {
	read := pcmReader([]int16{1, 2, 3, 4, 5})
	buf := make([]int16, 2)

	n, err := read(buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = read(buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = read(buf)
	require.Equal(t, 1, n)
	require.Equal(t, int16(5), buf[0])
	require.Error(t, err)
}

func TestSampleCount(t *testing.T) {
	require.Zero(t, sampleCount(-time.Second))
	require.Equal(t, 400, sampleCount(25*time.Millisecond))
}
