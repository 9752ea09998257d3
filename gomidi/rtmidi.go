//go:build cgo

package gomidi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vsariola/polysine"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext receives live MIDI input and hands it to the audio thread
	// as block-relative events. Messages arrive on the driver's goroutine and
	// go through a bounded channel; everything else happens on the audio
	// thread.
	RTMIDIContext struct {
		driver        *rtmididrv.Driver
		currentIn     drivers.In
		sampleRate    int
		events        chan timestampedMsg
		pending       []timestampedMsg
		startFrame    int
		startFrameSet bool
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}

	timestampedMsg struct {
		frame int
		msg   midi.Message
	}
)

// NewContext opens the rtmidi driver.
func NewContext(sampleRate int) (*RTMIDIContext, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("could not open rtmidi driver: %w", err)
	}
	return &RTMIDIContext{
		driver:     driver,
		sampleRate: sampleRate,
		events:     make(chan timestampedMsg, 1024),
		pending:    make([]timestampedMsg, 0, 1024),
	}, nil
}

func (c *RTMIDIContext) InputDevices(yield func(RTMIDIDevice) bool) {
	ins, err := c.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		if !yield(RTMIDIDevice{context: c, in: in}) {
			return
		}
	}
}

// Open an input device while closing the currently open if necessary.
func (d RTMIDIDevice) Open() error {
	c := d.context
	if c.currentIn == d.in {
		return nil
	}
	if c.HasDeviceOpen() {
		c.currentIn.Close()
	}
	c.currentIn = d.in
	if err := d.in.Open(); err != nil {
		c.currentIn = nil
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	if _, err := midi.ListenTo(d.in, c.HandleMessage); err != nil {
		d.in.Close()
		c.currentIn = nil
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	return nil
}

func (d RTMIDIDevice) String() string {
	return d.in.String()
}

func (c *RTMIDIContext) HasDeviceOpen() bool {
	return c.currentIn != nil && c.currentIn.IsOpen()
}

// OpenByPrefix opens the first input whose name starts with namePrefix; an
// empty prefix opens the first input.
func (c *RTMIDIContext) OpenByPrefix(namePrefix string) error {
	for input := range c.InputDevices {
		if strings.HasPrefix(input.String(), namePrefix) {
			return input.Open()
		}
	}
	if namePrefix == "" {
		return errors.New("could not find any MIDI input")
	}
	return fmt.Errorf("could not find any MIDI input starting with %q", namePrefix)
}

func (c *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	select {
	case c.events <- timestampedMsg{frame: int(int64(timestampms) * int64(c.sampleRate) / 1000), msg: msg}: // if the channel is full, just drop the message
	default:
	}
}

// Events appends to dst the events received for the next block of frames
// samples and returns the result, with frames relative to the start of the
// block. Events that arrived too late for their frame are placed at frame 0;
// events that belong to later blocks are kept for them.
func (c *RTMIDIContext) Events(frames int, dst []polysine.Event) []polysine.Event {
F:
	for {
		select {
		case m := <-c.events:
			if !c.startFrameSet {
				c.startFrame = m.frame
				c.startFrameSet = true
			}
			if len(c.pending) < cap(c.pending) {
				c.pending = append(c.pending, m)
			}
		default:
			break F
		}
	}
	consumed := 0
	for _, m := range c.pending {
		f := m.frame - c.startFrame
		if f >= frames {
			break
		}
		if f < 0 {
			// we are late; pull the clock towards the event
			c.startFrame += f / 5
			f = 0
		}
		consumed++
		if e, ok := Decode(f, m.msg); ok {
			dst = append(dst, e)
		}
	}
	c.pending = c.pending[:copy(c.pending, c.pending[consumed:])]
	c.startFrame += frames
	if len(c.pending) > 0 {
		// the next event is in the future; move the clock towards it
		delta := c.startFrame - c.pending[0].frame
		c.startFrame -= delta / 5
	}
	return dst
}

func (c *RTMIDIContext) Close() {
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.driver.Close()
}
