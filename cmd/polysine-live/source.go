//go:build cgo

package main

import (
	"github.com/vsariola/polysine"
	"github.com/vsariola/polysine/analysis"
	"github.com/vsariola/polysine/engine"
	"github.com/vsariola/polysine/gomidi"
)

type (
	// liveSource renders the engine on demand of the audio device, taking
	// the events received from the MIDI input since the previous block. It
	// runs on the audio thread and reports its status through a channel
	// that never blocks it.
	liveSource struct {
		engine   *engine.Engine
		midi     *gomidi.RTMIDIContext
		params   polysine.Params
		channels int
		events   []polysine.Event
		output   [][]float64
		mono     []float32
		meter    analysis.Meter
		status   chan liveStatus
	}

	liveStatus struct {
		level  analysis.Level
		voices int
	}
)

func newLiveSource(e *engine.Engine, midi *gomidi.RTMIDIContext, config polysine.Config) *liveSource {
	output := make([][]float64, config.Channels)
	for c := range output {
		output[c] = make([]float64, config.BlockSize)
	}
	return &liveSource{
		engine:   e,
		midi:     midi,
		params:   config.Params(),
		channels: config.Channels,
		events:   make([]polysine.Event, 0, 256),
		output:   output,
		mono:     make([]float32, config.BlockSize),
		status:   make(chan liveStatus, 1),
	}
}

func (s *liveSource) ReadAudio(buf []float32) (int, error) {
	frames := min(len(buf)/s.channels, len(s.mono))
	if frames == 0 {
		return 0, nil
	}
	s.events = s.midi.Events(frames, s.events[:0])
	block := polysine.Block{
		Samples: frames,
		Begin:   s.params,
		End:     s.params,
		Events:  s.events,
		Output:  s.output,
	}
	s.engine.Process(&block)
	for i := 0; i < frames; i++ {
		for c := 0; c < s.channels; c++ {
			buf[i*s.channels+c] = float32(s.output[c][i])
		}
		s.mono[i] = float32(s.output[0][i])
	}
	status := liveStatus{level: s.meter.Measure(s.mono[:frames]), voices: s.engine.ActiveVoices()}
	select {
	case <-s.status: // drop the stale status nobody read
	default:
	}
	select {
	case s.status <- status:
	default:
	}
	return frames * s.channels, nil
}
