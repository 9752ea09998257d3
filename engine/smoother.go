package engine

import "math"

// GainFromParam maps the Gain parameter in [0, 1] to a linear gain: 0 is
// -20 dB, 0.5 is unity and 1 is +20 dB.
func GainFromParam(param float64) float64 {
	return math.Pow(10, -1+2*param)
}

// GainRatio returns the per-sample multiplier that takes the gain from
// GainFromParam(begin) to GainFromParam(end) in n samples. Multiplying once
// per sample avoids calling math.Pow inside the sample loop. Unchanged
// parameters give exactly 1.
func GainRatio(begin, end float64, n int) float64 {
	diff := end - begin
	if diff == 0 || n <= 0 {
		return 1
	}
	return math.Pow(10, 2*diff/float64(n))
}

// SmoothingCoefficient returns the coefficient of the amplitude follower for
// the Smooth parameter. Larger values of smooth give longer smoothing times.
func SmoothingCoefficient(smooth, sampleRate float64) float64 {
	return math.Pow(10, 1/(50+0.5*sampleRate*smooth)) - 1
}
