// Package oto plays polysine audio through github.com/ebitengine/oto/v3.
package oto

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/polysine"
)

type (
	// OtoContext implements polysine.AudioContext.
	OtoContext struct {
		context  *oto.Context
		channels int
	}

	// OtoOutput is a playing source, returned by OtoContext.Play.
	OtoOutput struct {
		player *oto.Player
	}

	// otoReader adapts a polysine.AudioSource into the float32LE byte stream
	// oto reads from.
	otoReader struct {
		source    polysine.AudioSource
		tmpBuffer []float32
	}
)

const otoBufferSize = 50 * time.Millisecond

// NewContext creates an oto context with interleaved float32 output. It
// blocks until the audio device is ready.
func NewContext(sampleRate, channels int) (*OtoContext, error) {
	context, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   otoBufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{context: context, channels: channels}, nil
}

// Play starts playing the source and returns immediately.
func (c *OtoContext) Play(source polysine.AudioSource) polysine.CloserWaiter {
	player := c.context.NewPlayer(&otoReader{source: source})
	player.Play()
	return &OtoOutput{player: player}
}

// Close suspends the audio device; oto contexts cannot be destroyed.
func (c *OtoContext) Close() error {
	if err := c.context.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

// Wait blocks until the source is exhausted and everything has been played.
func (o *OtoOutput) Wait() {
	for o.player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
}

// Close stops the playback.
func (o *OtoOutput) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}

func (r *otoReader) Read(p []byte) (int, error) {
	n := len(p) / 4
	if cap(r.tmpBuffer) < n {
		r.tmpBuffer = make([]float32, n)
	}
	samples, err := r.source.ReadAudio(r.tmpBuffer[:n])
	FloatBufferToFloat32LE(r.tmpBuffer[:samples], p)
	if err != nil && !errors.Is(err, io.EOF) {
		return samples * 4, fmt.Errorf("audio source failed: %w", err)
	}
	return samples * 4, err
}
