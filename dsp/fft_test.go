package dsp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_ToneLandsInItsBin(t *testing.T) {
	const size = 256
	fft := NewFFT()

	for _, bin := range []int{0, 1, 17, 100, size - 1} {
		bins := fft.Transform(generateToneSamples(bin, size), size)

		require.Len(t, bins, size)
		assert.Equalf(t, bin, PeakBin(bins), "bin %d", bin)
	}
}

func TestTransform_ZeroPadsShortInput(t *testing.T) {
	const size = 64
	fft := NewFFT()

	samples := []complex128{complex(1, 0), complex(1, 0)}
	bins := fft.Transform(samples, size)

	require.Len(t, bins, size)
	assert.Equal(t, 0, PeakBin(bins))
}

func TestTransform_ReusedBufferIsCleared(t *testing.T) {
	const size = 64
	fft := NewFFT()

	fft.Transform(generateToneSamples(13, size), size)
	bins := fft.Transform([]complex128{complex(1, 0)}, size)

	// a stale tone from the first call would move the peak away from DC
	assert.Equal(t, 0, PeakBin(bins))
}

func TestPeakBin_EmptyBins(t *testing.T) {
	assert.Equal(t, 0, PeakBin(nil))
}

func TestPSD(t *testing.T) {
	assert.InDelta(t, 25, PSD(complex(3, 4)), 1e-12)
	assert.InDelta(t, 5, Magnitude(complex(3, 4)), 1e-12)
}

func generateToneSamples(bin int, size int) []complex128 {
	samples := make([]complex128, size)
	for k := range samples {
		phase := 2 * math.Pi * float64(k) * float64(bin) / float64(size)
		samples[k] = complex(math.Cos(phase), math.Sin(phase))
	}
	return samples
}
