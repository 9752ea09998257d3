package engine

import "slices"

// Capacity is the number of voices in a pool. NoteOns beyond it are dropped.
const Capacity = 24

// pool is a fixed array of voices where the first active voices are live and
// the rest are free. Reclaiming a voice swaps it with the last live voice, so
// the order of the live voices changes and indices are not stable across
// events or samples.
type pool struct {
	voices [Capacity]voice
	active int
}

func newPool() pool {
	var p pool
	p.reset()
	return p
}

func (p *pool) reset() {
	for i := range p.voices {
		p.voices[i].cancel()
	}
	p.active = 0
}

func (p *pool) live() []voice {
	return p.voices[:p.active]
}

// find returns the index of the live voice holding note, or -1.
func (p *pool) find(note int) int {
	key := voice{note: note}
	return slices.IndexFunc(p.live(), func(v voice) bool { return sameNote(v, key) })
}

// noteOn retriggers the live voice of the note in place, or claims the first
// free voice. When the pool is full, the note is dropped.
func (p *pool) noteOn(note int, amplitude, omega float64) {
	i := p.find(note)
	if i < 0 {
		if p.active == Capacity {
			return
		}
		i = p.active
		p.active++
	}
	p.voices[i].noteOn(note, amplitude, omega)
}

func (p *pool) noteOff(note int, pedalDown bool) {
	if i := p.find(note); i >= 0 {
		p.voices[i].noteOff(pedalDown)
	}
}

// retune recomputes the frequency of every live voice that has one, keeping
// the phases.
func (p *pool) retune(bend, sampleRate float64) {
	for i := range p.live() {
		v := &p.voices[i]
		if v.omega > 0 {
			v.omega = Omega(v.note, bend, sampleRate)
		}
	}
}

func (p *pool) pedalReleased() {
	for i := range p.live() {
		p.voices[i].pedalReleased()
	}
}

// process renders one sample of the live voice at index i. If the voice has
// finished, it is swapped with the last live voice and the pool shrinks by
// one; the voice swapped into index i is then rendered in its place, so that
// no live voice misses the sample. If i was the last live voice, it renders
// silence.
func (p *pool) process(i int, coeff float64) float64 {
	for {
		v := &p.voices[i]
		v.follow(coeff)
		if !v.finished() {
			return v.oscillate()
		}
		last := p.active - 1
		if i != last {
			p.voices[i], p.voices[last] = p.voices[last], p.voices[i]
		}
		p.voices[last].cancel()
		p.active--
		if i == last {
			return 0
		}
	}
}

func (p *pool) reducePhases() {
	for i := range p.live() {
		p.voices[i].reducePhase()
	}
}
