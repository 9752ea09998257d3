package engine

import "github.com/vsariola/polysine"

// dispatchDue applies the events starting from index next whose frame is at
// or before frame, and returns the index of the first event not applied yet.
// The events are assumed to be sorted by frame; they are applied in the given
// order and never revisited.
func (e *Engine) dispatchDue(events []polysine.Event, next, frame int) int {
	for next < len(events) && events[next].Frame <= frame {
		e.dispatch(events[next])
		next++
	}
	return next
}

func (e *Engine) dispatch(ev polysine.Event) {
	switch ev.Kind {
	case polysine.NoteOn:
		note := int(ev.Note)
		e.pool.noteOn(note, float64(ev.Velocity)/127, Omega(note, e.pitchBend, e.sampleRate))
	case polysine.NoteOff:
		e.pool.noteOff(int(ev.Note), e.pedalDown)
	case polysine.PitchBend:
		e.pitchBend = polysine.BendSemitones(ev.Bend)
		e.pool.retune(e.pitchBend, e.sampleRate)
	case polysine.ControlChange:
		if ev.Controller != polysine.SustainController {
			return
		}
		down := ev.Value >= 64
		if down == e.pedalDown {
			return
		}
		e.pedalDown = down
		if !down {
			e.pool.pedalReleased()
		}
	}
}
