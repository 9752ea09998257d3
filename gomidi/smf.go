package gomidi

import (
	"fmt"

	"github.com/vsariola/polysine"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// ReadScore reads a standard MIDI file into a score at the given sample rate.
// All tracks and channels are merged; the tempo map of the file is used to
// convert ticks to frames. The score is tail frames longer than its last
// event, to let the released notes decay.
func ReadScore(filename string, sampleRate, tail int) (polysine.Score, error) {
	file, err := smf.ReadFile(filename)
	if err != nil {
		return polysine.Score{}, fmt.Errorf("could not read MIDI file %v: %w", filename, err)
	}
	return FromSMF(file, sampleRate, tail), nil
}

// FromSMF converts a parsed MIDI file into a sorted score.
func FromSMF(file *smf.SMF, sampleRate, tail int) polysine.Score {
	score := polysine.Score{SampleRate: sampleRate}
	last := 0
	for _, track := range file.Tracks {
		var absTicks int64
		for _, ev := range track {
			absTicks += int64(ev.Delta)
			frame := int(file.TimeAt(absTicks) * int64(sampleRate) / 1000000)
			e, ok := Decode(frame, midi.Message(ev.Message))
			if !ok {
				continue
			}
			score.Events = append(score.Events, e)
			last = max(last, frame)
		}
	}
	score.Length = last + 1 + max(tail, 0)
	score.Sort()
	return score
}
