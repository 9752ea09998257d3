package engine

import "math"

const (
	// NoNote marks a voice that holds no note.
	NoNote = -1

	// releaseThreshold is the amplitude below which a released voice is
	// considered silent and gets reclaimed.
	releaseThreshold = 1e-4

	period = 2 * math.Pi
)

// voice is a sine oscillator with a one-pole amplitude follower. The
// follower moves smoothed towards target on every sample; NoteOn and NoteOff
// only change the target.
type voice struct {
	note           int
	target         float64
	smoothed       float64
	omega          float64 // phase increment per sample, in radians
	phase          float64
	pendingRelease bool // note off received while the pedal was down
}

// sameNote is the equality used for voice lookup: two voices are the same
// if they hold the same note, regardless of the rest of their state.
func sameNote(a, b voice) bool {
	return a.note == b.note
}

// Omega returns the phase increment per sample of a note, bent by the given
// number of semitones: A4 (note 69) is 440 Hz and an octave doubles the
// frequency.
func Omega(note int, bend, sampleRate float64) float64 {
	return 2 * math.Pi * math.Pow(2, (float64(note-69)+bend)/12) * 440 / sampleRate
}

func (v *voice) noteOn(note int, amplitude, omega float64) {
	v.note = note
	v.target = amplitude
	v.omega = omega
}

// noteOff silences the voice, or with the pedal down, remembers to do so
// when the pedal is released.
func (v *voice) noteOff(pedalDown bool) {
	if !pedalDown {
		v.target = 0
	} else {
		v.pendingRelease = true
	}
}

func (v *voice) pedalReleased() {
	if v.pendingRelease {
		v.target = 0
		v.pendingRelease = false
	}
}

// follow advances the amplitude follower by one sample.
func (v *voice) follow(coeff float64) {
	v.smoothed += coeff * (v.target - v.smoothed)
}

func (v *voice) finished() bool {
	return v.target == 0 && v.smoothed < releaseThreshold
}

// oscillate returns the current sample and advances the phase.
func (v *voice) oscillate() float64 {
	s := v.smoothed * math.Sin(v.phase)
	v.phase += v.omega
	return s
}

func (v *voice) cancel() {
	*v = voice{note: NoNote}
}

// reducePhase wraps the phase back to [0, 2π]. It runs once per block rather
// than per sample; within a block the phase grows by at most blockSize*omega.
func (v *voice) reducePhase() {
	for v.phase > period {
		v.phase -= period
	}
}
