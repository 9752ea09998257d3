package engine

import (
	"math"
	"testing"

	"github.com/vsariola/polysine"
)

const testSampleRate = 44100

func render(e *Engine, n int, params polysine.Params, events ...polysine.Event) []float64 {
	out := make([]float64, n)
	e.Process(&polysine.Block{Samples: n, Begin: params, End: params, Events: events, Output: [][]float64{out}})
	return out
}

func voiceFor(e *Engine, note int) (VoiceInfo, bool) {
	for v := range e.Voices {
		if v.Note == note {
			return v, true
		}
	}
	return VoiceInfo{}, false
}

func TestPoolFillsUpAndDropsOverflow(t *testing.T) {
	e := New(testSampleRate)
	var events []polysine.Event
	for note := 40; note < 40+Capacity+1; note++ {
		events = append(events, polysine.NoteOnEvent(0, byte(note), 100))
	}
	render(e, 1, polysine.DefaultParams(), events...)
	if got := e.ActiveVoices(); got != Capacity {
		t.Fatalf("expected %v active voices, got %v", Capacity, got)
	}
	for note := 40; note < 40+Capacity; note++ {
		if e.pool.find(note) < 0 {
			t.Errorf("note %v should have a live voice", note)
		}
	}
	if i := e.pool.find(40 + Capacity); i >= 0 {
		t.Errorf("the note past capacity should have been dropped, found at index %v", i)
	}
	// releasing a voice makes room again
	render(e, 5000, polysine.DefaultParams(), polysine.NoteOffEvent(0, 40))
	render(e, 1, polysine.DefaultParams(), polysine.NoteOnEvent(0, 40+Capacity, 100))
	if e.pool.find(40+Capacity) < 0 {
		t.Errorf("a freed voice should be reusable")
	}
	if got := e.ActiveVoices(); got != Capacity {
		t.Errorf("expected %v active voices after reuse, got %v", Capacity, got)
	}
}

func TestRetriggerUpdatesInPlace(t *testing.T) {
	e := New(testSampleRate)
	render(e, 100, polysine.DefaultParams(), polysine.NoteOnEvent(0, 60, 64))
	before, _ := voiceFor(e, 60)
	render(e, 0, polysine.DefaultParams(), polysine.NoteOnEvent(0, 60, 127))
	if got := e.ActiveVoices(); got != 1 {
		t.Fatalf("retrigger should not allocate a new voice, active voices = %v", got)
	}
	after, _ := voiceFor(e, 60)
	if after.Target != 1 {
		t.Errorf("retrigger should update the amplitude target to 1, got %v", after.Target)
	}
	if after.Phase != before.Phase {
		t.Errorf("retrigger should keep the phase: before %v, after %v", before.Phase, after.Phase)
	}
	if after.Omega != Omega(60, 0, testSampleRate) {
		t.Errorf("retrigger omega = %v, expected %v", after.Omega, Omega(60, 0, testSampleRate))
	}
}

func TestReleaseDecaysAndReclaims(t *testing.T) {
	e := New(testSampleRate)
	params := polysine.DefaultParams()
	render(e, 2000, params, polysine.NoteOnEvent(0, 60, 127), polysine.NoteOnEvent(0, 64, 127))
	render(e, 0, params, polysine.NoteOffEvent(0, 60))
	prev, _ := voiceFor(e, 60)
	if prev.Target != 0 {
		t.Fatalf("note off with pedal up should set the target to 0, got %v", prev.Target)
	}
	const maxSamples = 10000
	for i := 0; i < maxSamples; i++ {
		render(e, 1, params)
		v, ok := voiceFor(e, 60)
		if !ok {
			if got := e.ActiveVoices(); got != 1 {
				t.Fatalf("reclaiming should remove exactly one voice, active voices = %v", got)
			}
			if _, ok := voiceFor(e, 64); !ok {
				t.Fatalf("the held note should still be live")
			}
			return
		}
		if v.Amplitude > prev.Amplitude {
			t.Fatalf("amplitude increased after release at sample %v: %v > %v", i, v.Amplitude, prev.Amplitude)
		}
		prev = v
	}
	t.Fatalf("released voice was not reclaimed within %v samples", maxSamples)
}

func TestPedalDefersRelease(t *testing.T) {
	e := New(testSampleRate)
	params := polysine.DefaultParams()
	render(e, 10, params,
		polysine.SustainEvent(0, true),
		polysine.NoteOnEvent(0, 60, 127),
		polysine.NoteOffEvent(1, 60))
	v, ok := voiceFor(e, 60)
	if !ok {
		t.Fatalf("note should be live")
	}
	if v.Target != 1 || !v.PendingRelease {
		t.Fatalf("note off with pedal down should only mark a pending release, got target %v, pending %v", v.Target, v.PendingRelease)
	}
	render(e, 20000, params)
	v, ok = voiceFor(e, 60)
	if !ok {
		t.Fatalf("note should keep sounding while the pedal is down")
	}
	if v.Amplitude < 0.99 {
		t.Errorf("amplitude should stay up while the pedal is down, got %v", v.Amplitude)
	}
	render(e, 0, params, polysine.SustainEvent(0, false))
	v, _ = voiceFor(e, 60)
	if v.Target != 0 || v.PendingRelease {
		t.Fatalf("pedal up should release the note, got target %v, pending %v", v.Target, v.PendingRelease)
	}
	render(e, 10000, params)
	if got := e.ActiveVoices(); got != 0 {
		t.Errorf("voice should have been reclaimed after pedal up, active voices = %v", got)
	}
}

func TestPedalUpWithoutTransitionDoesNothing(t *testing.T) {
	e := New(testSampleRate)
	render(e, 10, polysine.DefaultParams(),
		polysine.SustainEvent(0, true),
		polysine.NoteOnEvent(0, 60, 127),
		polysine.NoteOffEvent(0, 60),
		polysine.SustainEvent(1, true),
		polysine.ControlChangeEvent(2, 1, 0))
	v, _ := voiceFor(e, 60)
	if !e.PedalDown() || v.Target != 1 || !v.PendingRelease {
		t.Errorf("pedal state should not change: down %v, target %v, pending %v", e.PedalDown(), v.Target, v.PendingRelease)
	}
}

func TestUnmatchedNoteOffIsIgnored(t *testing.T) {
	e := New(testSampleRate)
	render(e, 10, polysine.DefaultParams(), polysine.NoteOnEvent(0, 60, 127), polysine.NoteOffEvent(5, 61))
	v, _ := voiceFor(e, 60)
	if e.ActiveVoices() != 1 || v.Target != 1 {
		t.Errorf("note off for another note should be a no-op")
	}
}

func TestPitchBendKeepsPhase(t *testing.T) {
	e := New(testSampleRate)
	render(e, 10, polysine.DefaultParams(), polysine.NoteOnEvent(0, 69, 127))
	before, _ := voiceFor(e, 69)
	render(e, 0, polysine.DefaultParams(), polysine.PitchBendEvent(0, 16383))
	after, _ := voiceFor(e, 69)
	if after.Phase != before.Phase {
		t.Errorf("pitch bend should not reset the phase: before %v, after %v", before.Phase, after.Phase)
	}
	want := Omega(69, polysine.BendSemitones(16383), testSampleRate)
	if after.Omega != want {
		t.Errorf("bent omega = %v, expected %v", after.Omega, want)
	}
	if after.Omega <= before.Omega {
		t.Errorf("bending up should raise the frequency")
	}
	// new notes pick up the current bend
	render(e, 0, polysine.DefaultParams(), polysine.NoteOnEvent(0, 60, 127))
	v, _ := voiceFor(e, 60)
	if want := Omega(60, e.PitchBend(), testSampleRate); v.Omega != want {
		t.Errorf("new note omega = %v, expected %v", v.Omega, want)
	}
}

func TestA4FirstSamples(t *testing.T) {
	e := New(testSampleRate)
	params := polysine.Params{polysine.Smooth: 0.01, polysine.Gain: 0.5}
	out := render(e, 4, params, polysine.NoteOnEvent(0, 69, 127))
	omega := 2 * math.Pi * 440 / testSampleRate
	if got := Omega(69, 0, testSampleRate); math.Abs(got-omega) > 1e-15 {
		t.Fatalf("A4 omega = %v, expected %v", got, omega)
	}
	coeff := SmoothingCoefficient(0.01, testSampleRate)
	amp := 0.0
	for i, got := range out {
		amp += coeff * (1 - amp)
		want := amp * math.Sin(float64(i)*omega)
		if math.Abs(got-want) > 1e-12 {
			t.Errorf("sample %v = %v, expected %v", i, got, want)
		}
		// the phase starts at zero, so only the first sample is silent
		if i > 0 && got <= 0 {
			t.Errorf("sample %v should be positive, got %v", i, got)
		}
	}
	v, _ := voiceFor(e, 69)
	if math.Abs(v.Amplitude-amp) > 1e-15 {
		t.Errorf("smoothed amplitude = %v, expected %v", v.Amplitude, amp)
	}
}

func TestReclaimDoesNotSkipSwappedVoice(t *testing.T) {
	params := polysine.DefaultParams()
	withRelease := New(testSampleRate)
	render(withRelease, 2000, params,
		polysine.NoteOnEvent(0, 60, 127),
		polysine.NoteOnEvent(0, 64, 100),
		polysine.NoteOnEvent(0, 67, 80))
	reference := New(testSampleRate)
	render(reference, 2000, params,
		polysine.NoteOnEvent(0, 64, 100),
		polysine.NoteOnEvent(0, 67, 80))
	// note 60 sits at index 0, so reclaiming it swaps note 67 in its place
	render(withRelease, 4000, params, polysine.NoteOffEvent(0, 60))
	render(reference, 4000, params)
	if got := withRelease.ActiveVoices(); got != 2 {
		t.Fatalf("expected 2 active voices after reclaim, got %v", got)
	}
	for _, note := range []int{64, 67} {
		got, ok := voiceFor(withRelease, note)
		want, _ := voiceFor(reference, note)
		if !ok {
			t.Fatalf("note %v missing after reclaim", note)
		}
		if got.Phase != want.Phase || got.Amplitude != want.Amplitude {
			t.Errorf("note %v diverged: phase %v vs %v, amplitude %v vs %v", note, got.Phase, want.Phase, got.Amplitude, want.Amplitude)
		}
	}
	a := render(withRelease, 64, params)
	b := render(reference, 64, params)
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			t.Fatalf("sample %v differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestReclaimingLastVoiceIsSilent(t *testing.T) {
	e := New(testSampleRate)
	params := polysine.DefaultParams()
	render(e, 100, params, polysine.NoteOnEvent(0, 60, 127))
	render(e, 0, params, polysine.NoteOffEvent(0, 60))
	for i := 0; i < 100000 && e.ActiveVoices() > 0; i++ {
		render(e, 1, params)
	}
	if e.ActiveVoices() != 0 {
		t.Fatalf("voice was never reclaimed")
	}
	for i, s := range render(e, 16, params) {
		if s != 0 {
			t.Fatalf("sample %v should be silent after reclaim, got %v", i, s)
		}
	}
}

func TestGainRampContinuity(t *testing.T) {
	e := New(testSampleRate)
	const n = 512
	out := make([]float64, n)
	block := polysine.Block{
		Samples: n,
		Begin:   polysine.Params{polysine.Smooth: 0.01, polysine.Gain: 0.5},
		End:     polysine.Params{polysine.Smooth: 0.01, polysine.Gain: 0.7},
		Output:  [][]float64{out},
	}
	e.Process(&block)
	endGain := e.Gain()
	want := GainFromParam(0.7)
	if math.Abs(endGain-want) > 1e-9*want {
		t.Fatalf("gain at the end of the ramp = %v, expected %v", endGain, want)
	}
	block.Begin = block.End
	e.Process(&block)
	if e.Gain() != want {
		t.Errorf("constant parameters should not drift the gain: %v != %v", e.Gain(), want)
	}
	if math.Abs(endGain-e.Gain()) > 1e-9*want {
		t.Errorf("gain jumped between blocks: %v -> %v", endGain, e.Gain())
	}
}

func TestOutputIsBroadcast(t *testing.T) {
	e := New(testSampleRate)
	out := [][]float64{make([]float64, 64), make([]float64, 64), make([]float64, 64)}
	e.Process(&polysine.Block{
		Samples: 64,
		Begin:   polysine.DefaultParams(),
		End:     polysine.DefaultParams(),
		Events:  []polysine.Event{polysine.NoteOnEvent(3, 72, 90)},
		Output:  out,
	})
	for i := range out[0] {
		if out[0][i] != out[1][i] || out[0][i] != out[2][i] {
			t.Fatalf("channels differ at sample %v", i)
		}
	}
	for i := 0; i <= 3; i++ {
		if out[0][i] != 0 {
			t.Errorf("sample %v before and at the note on should be silent, got %v", i, out[0][i])
		}
	}
}

func TestLateEventsAreAppliedAtBlockEnd(t *testing.T) {
	e := New(testSampleRate)
	out := render(e, 4, polysine.DefaultParams(), polysine.NoteOnEvent(10, 60, 127))
	for i, s := range out {
		if s != 0 {
			t.Errorf("sample %v should be silent, got %v", i, s)
		}
	}
	if e.ActiveVoices() != 1 {
		t.Errorf("the late note on should still have been applied")
	}
}

func TestPhaseStaysBoundedAtHighPitch(t *testing.T) {
	e := New(testSampleRate)
	const n = 1 << 16
	render(e, n, polysine.DefaultParams(), polysine.PitchBendEvent(0, 16383), polysine.NoteOnEvent(0, 127, 127))
	v, _ := voiceFor(e, 127)
	if math.IsNaN(v.Phase) || v.Phase < 0 || v.Phase > 2*math.Pi {
		t.Errorf("phase should be reduced to [0, 2π] at block end, got %v", v.Phase)
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	e := New(testSampleRate)
	out := [][]float64{make([]float64, 256), make([]float64, 256)}
	events := []polysine.Event{
		polysine.NoteOnEvent(0, 60, 127),
		polysine.NoteOnEvent(10, 64, 127),
		polysine.PitchBendEvent(20, 9000),
		polysine.SustainEvent(30, true),
		polysine.NoteOffEvent(40, 60),
		polysine.SustainEvent(50, false),
		polysine.NoteOffEvent(60, 64),
	}
	block := polysine.Block{Samples: 256, Begin: polysine.DefaultParams(), End: polysine.Params{0.01, 0.6}, Events: events, Output: out}
	allocs := testing.AllocsPerRun(100, func() { e.Process(&block) })
	if allocs != 0 {
		t.Errorf("Process allocated %v times per run", allocs)
	}
}

func TestResetFreesVoices(t *testing.T) {
	e := New(testSampleRate)
	render(e, 10, polysine.DefaultParams(), polysine.SustainEvent(0, true), polysine.NoteOnEvent(0, 60, 127), polysine.PitchBendEvent(0, 0))
	e.Reset()
	if e.ActiveVoices() != 0 || e.PedalDown() || e.PitchBend() != 0 {
		t.Errorf("Reset should free voices and release pedal and bend")
	}
	if e.TailSize() != polysine.TailInfinite {
		t.Errorf("TailSize = %v, expected infinite tail", e.TailSize())
	}
}
