package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/ktye/fft"
)

// maxFFTSize limits the analysed window; longer signals are analysed from
// their start.
const maxFFTSize = 1 << 16

// DominantFrequency returns the frequency, in Hz, of the strongest spectral
// peak of the signal. The signal is Hann windowed and truncated to the
// largest power of two that fits; the peak is refined by parabolic
// interpolation of the log magnitudes around the strongest bin.
func DominantFrequency(signal []float32, sampleRate int) (float64, error) {
	size := 1
	for size*2 <= len(signal) && size*2 <= maxFFTSize {
		size *= 2
	}
	if size < 16 {
		return 0, errors.New("signal too short for spectral analysis")
	}
	f, err := fft.New(size)
	if err != nil {
		return 0, fmt.Errorf("could not create FFT of size %v: %w", size, err)
	}
	buf := make([]complex128, size)
	for i := range buf {
		w := (1 - math.Cos(2*math.Pi*float64(i)/float64(size))) / 2
		buf[i] = complex(float64(signal[i])*w, 0)
	}
	buf = f.Transform(buf)
	best, bestMag := 0, 0.0
	for i := 1; i < size/2; i++ {
		if m := cmplx.Abs(buf[i]); m > bestMag {
			best, bestMag = i, m
		}
	}
	if bestMag == 0 {
		return 0, errors.New("signal is silent")
	}
	bin := float64(best)
	if best > 1 && best < size/2-1 {
		a := math.Log(cmplx.Abs(buf[best-1]) + 1e-300)
		b := math.Log(bestMag)
		c := math.Log(cmplx.Abs(buf[best+1]) + 1e-300)
		if d := a - 2*b + c; d != 0 {
			bin += 0.5 * (a - c) / d
		}
	}
	return bin * float64(sampleRate) / float64(size), nil
}
