package dsp

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// FFT transforms blocks of complex baseband samples into the frequency
// domain. The instance reuses its input buffer across calls.
type FFT struct {
	samples []complex128
}

func NewFFT() *FFT {
	return &FFT{}
}

// Transform returns the forward transform of the given samples, zero-padded
// to the given size. size must be a power of two.
func (f *FFT) Transform(samples []complex128, size int) []complex128 {
	if len(f.samples) != size {
		f.samples = make([]complex128, size)
	}
	n := copy(f.samples, samples)
	for i := n; i < size; i++ {
		f.samples[i] = 0
	}

	return fft.FFT(f.samples)
}

// PeakBin returns the index of the bin with the highest squared magnitude.
func PeakBin(bins []complex128) int {
	maxPSD := 0.0
	peak := 0
	for i, bin := range bins {
		psd := PSD(bin)
		if psd > maxPSD {
			maxPSD = psd
			peak = i
		}
	}
	return peak
}

// PSD returns the squared magnitude of the given value.
func PSD(value complex128) float64 {
	return real(value)*real(value) + imag(value)*imag(value)
}

// Magnitude returns the absolute value of the given value.
func Magnitude(value complex128) float64 {
	return math.Sqrt(PSD(value))
}
