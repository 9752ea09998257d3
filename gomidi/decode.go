// Package gomidi converts MIDI messages, MIDI files and live MIDI input into
// polysine events, using gitlab.com/gomidi/midi/v2.
package gomidi

import (
	"github.com/vsariola/polysine"
	"gitlab.com/gomidi/midi/v2"
)

// Decode converts a MIDI message into an event at the given frame. Messages
// the synth has no use for, e.g. aftertouch, program changes and meta
// messages, return ok = false. The channel is ignored. A note on with zero
// velocity is a note off, as usual in MIDI.
func Decode(frame int, msg midi.Message) (event polysine.Event, ok bool) {
	var channel, key, velocity, controller, value uint8
	var relative int16
	var absolute uint16
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		if velocity == 0 {
			return polysine.NoteOffEvent(frame, key), true
		}
		return polysine.NoteOnEvent(frame, key, velocity), true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return polysine.NoteOffEvent(frame, key), true
	case msg.GetPitchBend(&channel, &relative, &absolute):
		return polysine.PitchBendEvent(frame, absolute), true
	case msg.GetControlChange(&channel, &controller, &value):
		return polysine.ControlChangeEvent(frame, controller, value), true
	}
	return polysine.Event{}, false
}
