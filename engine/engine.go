// Package engine implements a polyphonic sine synth with a fixed pool of
// voices, a sustain pedal, pitch bend and a smoothly ramped output gain.
//
// Engine.Process is meant to be called from an audio callback: it does not
// allocate, lock or block. An Engine is not safe for concurrent use.
package engine

import (
	"math"

	"github.com/vsariola/polysine"
)

type (
	// Engine renders blocks of audio from note, pitch bend and sustain pedal
	// events. It implements polysine.Synth.
	Engine struct {
		sampleRate float64
		pool       pool
		pitchBend  float64 // semitones
		pedalDown  bool
		gain       float64 // linear, ramped every sample
		coeff      float64 // amplitude follower coefficient of the current block
	}

	// VoiceInfo is a snapshot of a live voice.
	VoiceInfo struct {
		Note           int
		Amplitude      float64 // current, smoothed amplitude
		Target         float64 // amplitude the voice is moving towards
		Omega          float64 // phase increment per sample, in radians
		Phase          float64
		PendingRelease bool
	}
)

// New returns an Engine for the given sample rate, with all voices free.
func New(sampleRate int) *Engine {
	e := &Engine{sampleRate: float64(sampleRate)}
	e.Reset()
	return e
}

// Reset frees all voices and releases the pedal and pitch bend.
func (e *Engine) Reset() {
	e.pool = newPool()
	e.pitchBend = 0
	e.pedalDown = false
	e.gain = GainFromParam(polysine.DefaultParams()[polysine.Gain])
	e.coeff = 0
}

// Process renders block.Samples samples to every channel of block.Output.
// Before each sample, the events due by that sample are applied. The output
// gain ramps geometrically from the Begin to the End value of the Gain
// parameter during the block; the Smooth parameter is taken from Begin.
// Events with frames past the end of the block are applied after the last
// sample.
func (e *Engine) Process(block *polysine.Block) {
	n := block.Samples
	e.coeff = SmoothingCoefficient(block.Begin[polysine.Smooth], e.sampleRate)
	e.gain = GainFromParam(block.Begin[polysine.Gain])
	ratio := GainRatio(block.Begin[polysine.Gain], block.End[polysine.Gain], n)
	next := 0
	for i := 0; i < n; i++ {
		next = e.dispatchDue(block.Events, next, i)
		var sample float64
		// process may reclaim voices, so e.pool.active is reread every time
		for j := 0; j < e.pool.active; j++ {
			sample += e.pool.process(j, e.coeff)
		}
		sample *= e.gain
		for _, out := range block.Output {
			out[i] = sample
		}
		e.gain *= ratio
	}
	e.dispatchDue(block.Events, next, math.MaxInt)
	e.pool.reducePhases()
}

// TailSize always returns polysine.TailInfinite: a held note sounds forever.
func (e *Engine) TailSize() int {
	return polysine.TailInfinite
}

// ActiveVoices returns the number of live voices, i.e. voices holding a note
// or still decaying after a release.
func (e *Engine) ActiveVoices() int {
	return e.pool.active
}

// Voices yields a snapshot of every live voice. The order is not stable.
func (e *Engine) Voices(yield func(VoiceInfo) bool) {
	for _, v := range e.pool.live() {
		info := VoiceInfo{
			Note:           v.note,
			Amplitude:      v.smoothed,
			Target:         v.target,
			Omega:          v.omega,
			Phase:          v.phase,
			PendingRelease: v.pendingRelease,
		}
		if !yield(info) {
			return
		}
	}
}

// Gain returns the current linear output gain, i.e. the gain the next sample
// would have been multiplied with.
func (e *Engine) Gain() float64 { return e.gain }

func (e *Engine) PedalDown() bool { return e.pedalDown }

// PitchBend returns the current pitch bend in semitones.
func (e *Engine) PitchBend() float64 { return e.pitchBend }

func (e *Engine) SampleRate() int { return int(e.sampleRate) }
