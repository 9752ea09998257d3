package polysine

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

type bufferStreamer struct {
	buffer *AudioBuffer
	pos    int
}

// Raw returns the buffer as raw little-endian samples, either as float32 or,
// if pcm16 = true, as signed 16-bit integers.
func (b *AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	var err error
	if pcm16 {
		int16data := make([]int16, len(b.Samples))
		for i, v := range b.Samples {
			int16data[i] = int16(clamp(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16))
		}
		err = binary.Write(buf, binary.LittleEndian, int16data)
	} else {
		err = binary.Write(buf, binary.LittleEndian, b.Samples)
	}
	if err != nil {
		return nil, fmt.Errorf("could not binary write data to binary buffer: %w", err)
	}
	return buf.Bytes(), nil
}

// Streamer returns a beep.Streamer view of the buffer. Mono buffers are
// duplicated to both sides; only the first two channels of wider buffers are
// streamed.
func (b *AudioBuffer) Streamer() beep.Streamer {
	return &bufferStreamer{buffer: b}
}

// WriteWav encodes the buffer as a PCM .wav file. precision is the number of
// bytes per sample: 2 for 16-bit, 3 for 24-bit audio.
func (b *AudioBuffer) WriteWav(w io.WriteSeeker, precision int) error {
	if b.Channels <= 0 {
		return fmt.Errorf("WriteWav failed: buffer has %d channels", b.Channels)
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(b.SampleRate),
		NumChannels: min(b.Channels, 2),
		Precision:   precision,
	}
	if err := wav.Encode(w, b.Streamer(), format); err != nil {
		return fmt.Errorf("WriteWav failed: %w", err)
	}
	return nil
}

func (s *bufferStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	c := s.buffer.Channels
	frames := s.buffer.Frames()
	for n < len(samples) && s.pos < frames {
		left := float64(s.buffer.Samples[s.pos*c])
		right := left
		if c > 1 {
			right = float64(s.buffer.Samples[s.pos*c+1])
		}
		samples[n] = [2]float64{left, right}
		n++
		s.pos++
	}
	return n, n > 0
}

func (s *bufferStreamer) Err() error { return nil }

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
