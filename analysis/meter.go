// Package analysis measures rendered audio: peak and RMS levels, and the
// dominant frequency of a signal.
package analysis

import (
	"math"

	"github.com/viterin/vek/vek32"
)

type (
	// Level is the peak and RMS level of a signal, both linear.
	Level struct {
		Peak float32
		RMS  float32
	}

	// Meter measures levels of float32 buffers. It keeps its scratch buffers
	// between calls, so that measuring blocks of the same size does not
	// allocate. The zero value is ready to use.
	Meter struct {
		tmp   []float32
		Max   Level // largest values seen since the last Reset
		power float64
		count int
	}
)

// Measure returns the level of the samples and accumulates it into the
// running statistics of the meter.
func (m *Meter) Measure(samples []float32) Level {
	if len(samples) == 0 {
		return Level{}
	}
	if cap(m.tmp) < len(samples) {
		m.tmp = make([]float32, len(samples))
	}
	tmp := m.tmp[:len(samples)]
	copy(tmp, samples)
	vek32.Abs_Inplace(tmp)
	peak := vek32.Max(tmp)
	sq := vek32.Mul_Into(tmp, samples, samples)
	mean := vek32.Mean(sq)
	level := Level{Peak: peak, RMS: float32(math.Sqrt(float64(mean)))}
	m.Max.Peak = max(m.Max.Peak, level.Peak)
	m.Max.RMS = max(m.Max.RMS, level.RMS)
	m.power += float64(mean) * float64(len(samples))
	m.count += len(samples)
	return level
}

// RMS returns the RMS level over everything measured since the last Reset.
func (m *Meter) RMS() float32 {
	if m.count == 0 {
		return 0
	}
	return float32(math.Sqrt(m.power / float64(m.count)))
}

func (m *Meter) Reset() {
	m.Max = Level{}
	m.power = 0
	m.count = 0
}

// Decibels converts a linear level to dBFS; silence is -Inf.
func Decibels(v float32) float64 {
	return 20 * math.Log10(float64(v))
}
