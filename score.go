package polysine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

type (
	// Score is a list of events and parameter automation points, all
	// timestamped in frames from the start of the score. Length is the
	// length of the score in frames; events at or past Length are never
	// played. If SampleRate is zero, the sample rate of the renderer is
	// assumed.
	Score struct {
		SampleRate int `yaml:",omitempty" json:",omitempty"`
		Length     int
		Events     []Event
		Automation []ParamPoint `yaml:",omitempty" json:",omitempty"`
	}

	// ParamPoint sets the value of a parameter at a given frame. Between two
	// points of the same parameter, the value is linearly interpolated.
	ParamPoint struct {
		Frame int
		Param ParamID
		Value float64
	}

	// ScoreBlock is one block of a score, as given by Score.Blocks. Offset is
	// the frame of the first sample of the block in the score; the Frames of
	// the Events are relative to the start of the block.
	ScoreBlock struct {
		Offset  int
		Samples int
		Begin   Params
		End     Params
		Events  []Event
	}
)

// ReadScore reads a score from a .json or .yml file.
func ReadScore(filename string) (Score, error) {
	inputBytes, err := os.ReadFile(filename)
	if err != nil {
		return Score{}, fmt.Errorf("could not read file %v: %w", filename, err)
	}
	var score Score
	if errJSON := json.Unmarshal(inputBytes, &score); errJSON != nil {
		score = Score{}
		if errYaml := yaml.Unmarshal(inputBytes, &score); errYaml != nil {
			return Score{}, fmt.Errorf("the score could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	return score, nil
}

// Validate checks that the score is playable, returning the first problem
// found.
func (s *Score) Validate() error {
	if s.Length <= 0 {
		return errors.New("score length should be positive")
	}
	if s.SampleRate < 0 {
		return fmt.Errorf("invalid sample rate %v", s.SampleRate)
	}
	for i, e := range s.Events {
		if e.Frame < 0 {
			return fmt.Errorf("event %v has a negative frame %v", i, e.Frame)
		}
		if e.Kind < NoteOn || e.Kind > ControlChange {
			return fmt.Errorf("event %v has an unknown kind %v", i, e.Kind)
		}
		if e.Note > 127 || e.Velocity > 127 || e.Controller > 127 || e.Value > 127 {
			return fmt.Errorf("event %v has a data byte outside 0..127", i)
		}
		if e.Bend > 16383 {
			return fmt.Errorf("event %v has a pitch bend value %v outside 0..16383", i, e.Bend)
		}
	}
	for i, p := range s.Automation {
		if p.Frame < 0 {
			return fmt.Errorf("automation point %v has a negative frame %v", i, p.Frame)
		}
		if p.Param < 0 || p.Param >= NumParams {
			return fmt.Errorf("automation point %v has an unknown parameter %v", i, p.Param)
		}
	}
	return nil
}

// Sort orders the events and automation points by frame. The sort is stable,
// so events on the same frame keep their relative order.
func (s *Score) Sort() {
	slices.SortStableFunc(s.Events, func(a, b Event) int { return a.Frame - b.Frame })
	slices.SortStableFunc(s.Automation, func(a, b ParamPoint) int { return a.Frame - b.Frame })
}

// Copy makes a deep copy of a Score.
func (s Score) Copy() Score {
	return Score{
		SampleRate: s.SampleRate,
		Length:     s.Length,
		Events:     slices.Clone(s.Events),
		Automation: slices.Clone(s.Automation),
	}
}

// ParamsAt returns the parameter values at the given frame. The automation
// points should be sorted. A parameter without points keeps its value from
// base; before its first point, a parameter ramps linearly from the base
// value at frame 0, and after the last point it holds the last value.
func (s *Score) ParamsAt(frame int, base Params) Params {
	ret := base
	for p := ParamID(0); p < NumParams; p++ {
		prevFrame, prevValue := 0, base[p]
		for _, point := range s.Automation {
			if point.Param != p {
				continue
			}
			if point.Frame >= frame {
				if point.Frame == prevFrame || point.Frame == frame {
					prevValue = point.Value
				} else {
					t := float64(frame-prevFrame) / float64(point.Frame-prevFrame)
					prevValue += t * (point.Value - prevValue)
				}
				break
			}
			prevFrame, prevValue = point.Frame, point.Value
		}
		ret[p] = prevValue
	}
	return ret
}

// Blocks slices the score into blocks of at most blockSize samples and yields
// them in order. The score should be sorted. The Events slice of a yielded
// block aliases an internal buffer and is only valid until the next block.
func (s *Score) Blocks(blockSize int, base Params) func(yield func(ScoreBlock) bool) {
	return func(yield func(ScoreBlock) bool) {
		if blockSize <= 0 {
			return
		}
		var events []Event
		next := 0
		for offset := 0; offset < s.Length; offset += blockSize {
			n := min(blockSize, s.Length-offset)
			events = events[:0]
			for next < len(s.Events) && s.Events[next].Frame < offset+n {
				e := s.Events[next]
				e.Frame -= offset
				events = append(events, e)
				next++
			}
			block := ScoreBlock{
				Offset:  offset,
				Samples: n,
				Begin:   s.ParamsAt(offset, base),
				End:     s.ParamsAt(offset+n, base),
				Events:  events,
			}
			if !yield(block) {
				return
			}
		}
	}
}
