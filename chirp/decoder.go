// Package chirp implements a chirp-spread-spectrum symbol decoder for the
// HC-12 long-range modes: blocks of baseband samples are dechirped with a
// reference downchirp, transformed into the frequency domain, and the peak
// bin of each symbol window yields the symbol value.
package chirp

import (
	"fmt"
	"math"

	"github.com/kpbenz/hc12rx/dsp"
	"github.com/kpbenz/hc12rx/trace"
)

const (
	traceSpectrum = "spectrum"
	traceSymbols  = "symbols"

	// MinSpreadingFactor and MaxSpreadingFactor bound the symbol bit width
	// that the byte packing supports.
	MinSpreadingFactor = 7
	MaxSpreadingFactor = 12
)

// Result of one Decode call: the extracted symbols, the bytes packed from
// them, and a rough signal-to-noise estimate for display purposes.
type Result struct {
	Symbols []uint16
	Bytes   []byte
	SNR     float64
}

// Decoder decodes blocks of complex baseband samples into symbols and
// bytes. The reference downchirp is derived from the spreading factor and
// is regenerated together with the symbol size whenever the spreading
// factor changes, so a decode never sees the two out of sync. The caller
// must serialize reconfiguration with Decode calls, a Decoder is not safe
// for concurrent use.
type Decoder struct {
	spreadingFactor int
	bandwidth       int

	symbolSize int
	downchirp  []complex128

	fft    *dsp.FFT
	tracer trace.Tracer
}

func NewDecoder(spreadingFactor int, bandwidth int) *Decoder {
	result := &Decoder{
		bandwidth: bandwidth,
		fft:       dsp.NewFFT(),
		tracer:    new(trace.NoTracer),
	}
	result.configure(spreadingFactor)
	return result
}

// configure sets the spreading factor and the values derived from it in
// one step.
func (d *Decoder) configure(spreadingFactor int) {
	d.spreadingFactor = spreadingFactor
	d.symbolSize = 1 << spreadingFactor
	d.downchirp = generateDownchirp(d.symbolSize)
}

// SetSpreadingFactor reconfigures the spreading factor, clamped to
// [MinSpreadingFactor, MaxSpreadingFactor]. It must not be called while a
// Decode call is in flight.
func (d *Decoder) SetSpreadingFactor(spreadingFactor int) {
	d.configure(max(MinSpreadingFactor, min(spreadingFactor, MaxSpreadingFactor)))
}

func (d *Decoder) SpreadingFactor() int {
	return d.spreadingFactor
}

// SetBandwidth sets the channel bandwidth. The symbol timing is expressed
// in samples per symbol, so the bandwidth only affects the physical
// interpretation of the decoded bins, not the decoding itself.
func (d *Decoder) SetBandwidth(bandwidth int) {
	d.bandwidth = bandwidth
}

func (d *Decoder) Bandwidth() int {
	return d.bandwidth
}

// SymbolSize returns the number of samples per symbol, 2^SF.
func (d *Decoder) SymbolSize() int {
	return d.symbolSize
}

func (d *Decoder) SetTracer(tracer trace.Tracer) {
	d.tracer = tracer
}

// Decode synchronizes on the block, extracts all complete symbols, and
// packs them into bytes. An empty block and an unsupported spreading
// factor are reported as errors; in the latter case the result still
// carries the symbols and the SNR estimate, but no bytes. No decoder state
// is corrupted by a failed call.
func (d *Decoder) Decode(block []complex64) (Result, error) {
	if len(block) == 0 {
		return Result{}, fmt.Errorf("no samples provided")
	}

	offset := d.locateSync(block)
	symbols := d.extractSymbols(block, offset)
	snr := estimateSNR(block)

	if d.tracer.Context() == traceSymbols {
		d.tracer.TraceBlock(traceSymbols, symbolsToValues(symbols))
	}

	bytes, err := d.symbolsToBytes(symbols)
	if err != nil {
		return Result{Symbols: symbols, SNR: snr}, err
	}

	return Result{Symbols: symbols, Bytes: bytes, SNR: snr}, nil
}

// locateSync slides a symbol-sized window across the block in quarter
// symbol steps and returns the offset of the window with the maximum
// energy. This is a coarse heuristic, not a correlation against the known
// preamble chirp: it misfires on blocks with strong non-preamble energy
// bursts and degrades under low SNR. The synchronization policy is an
// implementation detail of the decoder and may be replaced.
func (d *Decoder) locateSync(block []complex64) int {
	windowSize := d.symbolSize
	step := max(1, windowSize/4)
	limit := len(block) - windowSize
	if limit <= 0 {
		return 0
	}

	maxPower := 0.0
	bestOffset := 0
	for offset := 0; offset < limit; offset += step {
		end := offset + min(windowSize, len(block)-offset)
		var power float64
		for _, sample := range block[offset:end] {
			power += dsp.PSD(complex128(sample))
		}
		if power > maxPower {
			maxPower = power
			bestOffset = offset
		}
	}

	return bestOffset
}

// extractSymbols takes non-overlapping symbol-sized windows starting at
// the given offset, dechirps each with the reference downchirp, and reads
// the symbol value from the peak bin of the forward transform.
func (d *Decoder) extractSymbols(block []complex64, offset int) []uint16 {
	var symbols []uint16
	mask := uint16(1<<d.spreadingFactor - 1)

	dechirped := make([]complex128, d.symbolSize)
	pos := offset
	for pos+d.symbolSize <= len(block) {
		for i := range dechirped {
			dechirped[i] = complex128(block[pos+i]) * d.downchirp[i]
		}

		bins := d.fft.Transform(dechirped, d.symbolSize)
		if d.tracer.Context() == traceSpectrum {
			d.tracer.TraceBlock(traceSpectrum, binsToMagnitudes(bins))
		}

		symbols = append(symbols, uint16(dsp.PeakBin(bins))&mask)
		pos += d.symbolSize
	}

	return symbols
}

// generateDownchirp produces a unit-magnitude frequency sweep from +BW/2
// down to -BW/2 over one symbol, in normalized time.
func generateDownchirp(n int) []complex128 {
	chirp := make([]complex128, n)
	for i := range chirp {
		t := float64(i) / float64(n)
		phase := 2 * math.Pi * (0.5*t - 0.5*t*t)
		chirp[i] = complex(math.Cos(phase), -math.Sin(phase))
	}
	return chirp
}

// symbolsToBytes packs the symbols into bytes depending on the symbol bit
// width: SF 8 maps a symbol to a byte directly, SF 9-12 take the top 8
// bits of each symbol, SF 7 packs the 7-bit symbols back to back.
func (d *Decoder) symbolsToBytes(symbols []uint16) ([]byte, error) {
	sf := d.spreadingFactor

	switch {
	case sf == 7:
		return packNarrowSymbols(symbols, 7), nil
	case sf == 8:
		bytes := make([]byte, len(symbols))
		for i, symbol := range symbols {
			bytes[i] = byte(symbol & 0xFF)
		}
		return bytes, nil
	case sf >= 9 && sf <= 12:
		bytes := make([]byte, len(symbols))
		for i, symbol := range symbols {
			bytes[i] = byte((symbol >> (sf - 8)) & 0xFF)
		}
		return bytes, nil
	default:
		return nil, fmt.Errorf("unsupported spreading factor: %d", sf)
	}
}

// packNarrowSymbols packs symbols of less than 8 bits into bytes, MSB
// first. A trailing group of less than 8 bits is left-shifted into a final
// zero-padded byte.
func packNarrowSymbols(symbols []uint16, bits int) []byte {
	var bytes []byte
	var bitBuffer uint32
	bitCount := 0
	mask := uint16(1<<bits - 1)

	for _, symbol := range symbols {
		bitBuffer = bitBuffer<<bits | uint32(symbol&mask)
		bitCount += bits

		for bitCount >= 8 {
			bitCount -= 8
			bytes = append(bytes, byte(bitBuffer>>bitCount&0xFF))
		}
	}

	if bitCount > 0 {
		bytes = append(bytes, byte(bitBuffer<<(8-bitCount)&0xFF))
	}

	return bytes
}

// estimateSNR returns a rough SNR indicator in dB: the ratio of the mean
// sample power to the standard deviation of the per-sample power. This is
// not a calibrated measurement, it is only meant for display.
func estimateSNR(block []complex64) float64 {
	if len(block) == 0 {
		return 0
	}

	var meanPower float64
	for _, sample := range block {
		meanPower += dsp.PSD(complex128(sample))
	}
	meanPower /= float64(len(block))

	var variance float64
	for _, sample := range block {
		diff := dsp.PSD(complex128(sample)) - meanPower
		variance += diff * diff
	}
	variance /= float64(len(block))

	if variance <= 0 {
		return 0
	}
	return 10 * math.Log10(meanPower/math.Sqrt(variance))
}

func symbolsToValues(symbols []uint16) []float64 {
	result := make([]float64, len(symbols))
	for i, symbol := range symbols {
		result[i] = float64(symbol)
	}
	return result
}

func binsToMagnitudes(bins []complex128) []float64 {
	result := make([]float64, len(bins))
	for i, bin := range bins {
		result[i] = dsp.Magnitude(bin)
	}
	return result
}
