package polysine

import (
	"fmt"
	"strings"
)

type (
	// Event is a decoded MIDI event consumed by the synth. Inside a Block, the
	// Frame is relative to the start of the block; inside a Score, the Frame is
	// relative to the start of the score. Only the fields relevant to the Kind
	// are used: Note and Velocity for notes, Controller and Value for control
	// changes and Bend for pitch bends.
	Event struct {
		Frame      int
		Kind       EventKind
		Note       byte   `yaml:",omitempty" json:",omitempty"`
		Velocity   byte   `yaml:",omitempty" json:",omitempty"`
		Controller byte   `yaml:",omitempty" json:",omitempty"`
		Value      byte   `yaml:",omitempty" json:",omitempty"`
		Bend       uint16 `yaml:",omitempty" json:",omitempty"`
	}

	EventKind int

	// ParamID identifies one of the automatable parameters of the synth.
	ParamID int

	// Params holds one value for each parameter, indexed by ParamID.
	Params [NumParams]float64

	// Block is everything the synth needs to render one buffer: the length of
	// the buffer in samples, the parameter values at the beginning and at the
	// end of the block, the events sorted by Frame and one output slice per
	// channel, each at least Samples long. Every channel receives identical
	// content.
	Block struct {
		Samples int
		Begin   Params
		End     Params
		Events  []Event
		Output  [][]float64
	}
)

const (
	NoteOn EventKind = iota
	NoteOff
	PitchBend
	ControlChange
)

const (
	Smooth ParamID = iota
	Gain
	NumParams
)

const (
	// SustainController is the MIDI controller number of the sustain pedal.
	SustainController = 64
	// BendCenter is the 14-bit pitch wheel value meaning no bend.
	BendCenter = 8192
	// TailInfinite is reported as the tail size by synths that can keep
	// sounding indefinitely after their last input.
	TailInfinite = -1
	// DefaultSampleRate is used when nothing else is configured.
	DefaultSampleRate = 44100
)

var eventKindNames = [...]string{"noteon", "noteoff", "pitchbend", "controlchange"}

var paramNames = [...]string{"smooth", "gain"}

// DefaultParams returns Smooth = 0.01 and Gain = 0.5 (unity gain).
func DefaultParams() Params {
	return Params{Smooth: 0.01, Gain: 0.5}
}

// BendSemitones maps a 14-bit pitch wheel value to a pitch offset in
// semitones, in the range [-2, 2).
func BendSemitones(value uint16) float64 {
	return 2 * (float64(value) - BendCenter) / BendCenter
}

func NoteOnEvent(frame int, note, velocity byte) Event {
	return Event{Frame: frame, Kind: NoteOn, Note: note, Velocity: velocity}
}

func NoteOffEvent(frame int, note byte) Event {
	return Event{Frame: frame, Kind: NoteOff, Note: note}
}

func PitchBendEvent(frame int, value uint16) Event {
	return Event{Frame: frame, Kind: PitchBend, Bend: value}
}

func ControlChangeEvent(frame int, controller, value byte) Event {
	return Event{Frame: frame, Kind: ControlChange, Controller: controller, Value: value}
}

// SustainEvent is a shorthand for the control change of the sustain pedal.
func SustainEvent(frame int, down bool) Event {
	var v byte
	if down {
		v = 127
	}
	return ControlChangeEvent(frame, SustainController, v)
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

func (k EventKind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(eventKindNames) {
		return nil, fmt.Errorf("unknown event kind %d", int(k))
	}
	return []byte(eventKindNames[k]), nil
}

func (k *EventKind) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for i, n := range eventKindNames {
		if n == s {
			*k = EventKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", string(text))
}

func (p ParamID) String() string {
	if p < 0 || p >= NumParams {
		return fmt.Sprintf("ParamID(%d)", int(p))
	}
	return paramNames[p]
}

func (p ParamID) MarshalText() ([]byte, error) {
	if p < 0 || p >= NumParams {
		return nil, fmt.Errorf("unknown parameter %d", int(p))
	}
	return []byte(paramNames[p]), nil
}

func (p *ParamID) UnmarshalText(text []byte) error {
	s := strings.ToLower(string(text))
	for i, n := range paramNames {
		if n == s {
			*p = ParamID(i)
			return nil
		}
	}
	return fmt.Errorf("unknown parameter %q", string(text))
}
