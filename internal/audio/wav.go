package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavBitDepth    = 16
	wavChannels    = 1
	wavFormatPCM   = 1
	pcm16MaxSample = 32767
)

// ErrInvalidWAV indicates a payload that is not a readable PCM WAV container.
var ErrInvalidWAV = errors.New("invalid wav payload")

// EncodeWAV renders frames as a mono 16-bit little-endian PCM WAV container.
func EncodeWAV(frames []Frame, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("encode wav: invalid sample rate %d", sampleRate)
	}

	data := make([]int, 0, sampleCount(frames))
	for _, frame := range frames {
		for _, s := range frame {
			data = append(data, floatToPCM16(s))
		}
	}

	out := &memFile{}
	enc := wav.NewEncoder(out, sampleRate, wavBitDepth, wavChannels, wavFormatPCM)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: wavChannels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: wavBitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize wav: %w", err)
	}
	return out.Bytes(), nil
}

// DecodeWAV returns the samples of a mono 16-bit container scaled to [-1, 1]
// together with its sample rate.
func DecodeWAV(payload []byte) ([]float32, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(payload))
	if !dec.IsValidFile() {
		return nil, 0, ErrInvalidWAV
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if dec.BitDepth != wavBitDepth {
		return nil, 0, fmt.Errorf("decode wav: unsupported bit depth %d", dec.BitDepth)
	}

	channels := int(dec.NumChans)
	if channels < 1 {
		channels = 1
	}
	samples := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i+channels-1 < len(buf.Data); i += channels {
		var mixed float64
		for c := 0; c < channels; c++ {
			mixed += float64(buf.Data[i+c])
		}
		samples = append(samples, float32(mixed/float64(channels)/pcm16MaxSample))
	}
	return samples, int(dec.SampleRate), nil
}

// WAVDuration reports the playback length of a WAV payload.
func WAVDuration(payload []byte) (time.Duration, error) {
	if len(payload) == 0 {
		return 0, nil
	}
	dec := wav.NewDecoder(bytes.NewReader(payload))
	if !dec.IsValidFile() {
		return 0, ErrInvalidWAV
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("wav duration: %w", err)
	}
	return d, nil
}

// floatToPCM16 clamps and scales one float sample.
func floatToPCM16(s float32) int {
	v := float64(s)
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int(math.Round(v * pcm16MaxSample))
}

// memFile is an in-memory io.WriteSeeker; the wav encoder seeks back to patch
// chunk sizes on Close.
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		if end > cap(m.buf) {
			grown := make([]byte, end, 2*end)
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:end]
		}
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(m.pos) + offset
	case io.SeekEnd:
		next = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("seek: invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("seek: negative position %d", next)
	}
	m.pos = int(next)
	return next, nil
}

func (m *memFile) Bytes() []byte {
	return m.buf
}
