package polysine

import (
	"errors"
	"fmt"
)

type (
	// Synth renders audio one block at a time. Process must fill Samples
	// samples of every output channel of the block, applying the events at
	// their frames. TailSize reports how many samples the synth may keep
	// sounding after its last input; TailInfinite means it may never stop.
	Synth interface {
		Process(block *Block)
		TailSize() int
	}
)

// Render plays the whole score through the synth in blocks of blockSize
// samples and returns the interleaved result with the given number of
// channels. The score is not modified.
func Render(synth Synth, score Score, base Params, sampleRate, blockSize, channels int) (AudioBuffer, error) {
	if err := score.Validate(); err != nil {
		return AudioBuffer{}, fmt.Errorf("invalid score: %w", err)
	}
	if blockSize <= 0 {
		return AudioBuffer{}, errors.New("block size should be positive")
	}
	if channels <= 0 {
		return AudioBuffer{}, errors.New("number of channels should be positive")
	}
	if score.SampleRate != 0 && score.SampleRate != sampleRate {
		return AudioBuffer{}, fmt.Errorf("score sample rate %v does not match the synth sample rate %v", score.SampleRate, sampleRate)
	}
	score = score.Copy()
	score.Sort()
	ret := AudioBuffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Samples:    make([]float32, 0, score.Length*channels),
	}
	output := make([][]float64, channels)
	for c := range output {
		output[c] = make([]float64, blockSize)
	}
	for sb := range score.Blocks(blockSize, base) {
		block := Block{
			Samples: sb.Samples,
			Begin:   sb.Begin,
			End:     sb.End,
			Events:  sb.Events,
			Output:  output,
		}
		synth.Process(&block)
		for i := 0; i < sb.Samples; i++ {
			for c := 0; c < channels; c++ {
				ret.Samples = append(ret.Samples, float32(output[c][i]))
			}
		}
	}
	return ret, nil
}
