package polysine

import "io"

type (
	// AudioBuffer is interleaved float32 audio: frame i of channel c is in
	// Samples[i*Channels+c].
	AudioBuffer struct {
		SampleRate int
		Channels   int
		Samples    []float32
	}

	// AudioSource produces interleaved float32 audio. ReadAudio fills buf with
	// whole frames and returns the number of samples written; io.EOF is
	// returned when the source is exhausted.
	AudioSource interface {
		ReadAudio(buf []float32) (int, error)
	}

	// AudioContext plays AudioSources on an audio device.
	AudioContext interface {
		Play(source AudioSource) CloserWaiter
		Close() error
	}

	// CloserWaiter is returned by AudioContext.Play. Wait blocks until the
	// source has been played until the end; Close stops the playback early.
	CloserWaiter interface {
		Close() error
		Wait()
	}

	bufferSource struct {
		buffer *AudioBuffer
		pos    int
	}
)

// Frames returns the length of the buffer in frames.
func (b *AudioBuffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Source returns an AudioSource reading the buffer from the start.
func (b *AudioBuffer) Source() AudioSource {
	return &bufferSource{buffer: b}
}

func (s *bufferSource) ReadAudio(buf []float32) (int, error) {
	if s.pos >= len(s.buffer.Samples) {
		return 0, io.EOF
	}
	n := len(buf)
	if c := s.buffer.Channels; c > 0 {
		n -= n % c
	}
	n = copy(buf[:n], s.buffer.Samples[s.pos:])
	s.pos += n
	return n, nil
}
