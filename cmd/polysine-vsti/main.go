//go:build plugin

package main

import (
	"slices"

	"github.com/vsariola/polysine"
	"github.com/vsariola/polysine/engine"
	"github.com/vsariola/polysine/gomidi"
	"gitlab.com/gomidi/midi/v2"
	"pipelined.dev/audio/vst2"
)

type VSTIProcessContext struct {
	events []polysine.Event
	output [][]float64
	last   polysine.Params
	synth  *engine.Engine
}

// process renders one host buffer. The parameters ramp from the values of the
// previous buffer to the current ones.
func (c *VSTIProcessContext) process(params []*vst2.Parameter, out vst2.FloatBuffer) {
	var current polysine.Params
	for i := range current {
		current[i] = float64(params[i].Value)
	}
	for ch := range c.output {
		if len(c.output[ch]) < out.Frames {
			c.output[ch] = append(c.output[ch], make([]float64, out.Frames-len(c.output[ch]))...)
		}
	}
	slices.SortStableFunc(c.events, func(a, b polysine.Event) int { return a.Frame - b.Frame })
	block := polysine.Block{
		Samples: out.Frames,
		Begin:   c.last,
		End:     current,
		Events:  c.events,
		Output:  c.output,
	}
	c.synth.Process(&block)
	for ch := range c.output {
		dst := out.Channel(ch)
		for i := 0; i < out.Frames; i++ {
			dst[i] = float32(c.output[ch][i])
		}
	}
	c.last = current
	c.events = c.events[:0] // reset buffer, but keep the allocated memory
}

func init() {
	var (
		version = int32(100)
	)
	vst2.PluginAllocator = func(h vst2.Host) (vst2.Plugin, vst2.Dispatcher) {
		defaults := polysine.DefaultParams()
		context := VSTIProcessContext{
			events: make([]polysine.Event, 0, 256),
			output: [][]float64{make([]float64, 1024), make([]float64, 1024)},
			last:   defaults,
			synth:  engine.New(polysine.DefaultSampleRate),
		}
		params := make([]*vst2.Parameter, polysine.NumParams)
		for i := range params {
			params[i] = &vst2.Parameter{
				Name:  polysine.ParamID(i).String(),
				Value: float32(defaults[i]),
			}
		}
		return vst2.Plugin{
				UniqueID:       PLUGIN_ID,
				Version:        version,
				InputChannels:  0,
				OutputChannels: 2,
				Name:           PLUGIN_NAME,
				Vendor:         "vsariola/polysine",
				Category:       vst2.PluginCategorySynth,
				Flags:          vst2.PluginIsSynth,
				Parameters:     params,
				ProcessFloatFunc: func(in, out vst2.FloatBuffer) {
					context.process(params, out)
				},
			}, vst2.Dispatcher{
				CanDoFunc: func(pcds vst2.PluginCanDoString) vst2.CanDoResponse {
					switch pcds {
					case vst2.PluginCanReceiveEvents, vst2.PluginCanReceiveMIDIEvent:
						return vst2.YesCanDo
					}
					return vst2.NoCanDo
				},
				ProcessEventsFunc: func(ev *vst2.EventsPtr) {
					for i := 0; i < ev.NumEvents(); i++ {
						a := ev.Event(i)
						switch v := a.(type) {
						case *vst2.MIDIEvent:
							if e, ok := gomidi.Decode(int(v.DeltaFrames), midi.Message(v.Data[:])); ok {
								context.events = append(context.events, e)
							}
						}
					}
				},
				SetSampleRateFunc: func(sampleRate float32) {
					if int(sampleRate) <= 0 {
						return
					}
					if int(sampleRate) == context.synth.SampleRate() {
						context.synth.Reset()
						return
					}
					context.synth = engine.New(int(sampleRate))
				},
			}
	}
}

func main() {}
