// Package gfsk implements a GFSK demodulator for HC-12 transceiver traffic:
// an FM discriminator followed by a smoothing FIR filter, a bit slicer with
// fractional timing recovery, and an LSB-first byte assembler.
package gfsk

import (
	"math"

	"github.com/kpbenz/hc12rx/trace"
)

const (
	traceFM       = "fm"
	traceFiltered = "filtered"
	traceBits     = "bits"

	minFilterTaps = 5
	maxFilterTaps = 64
)

// Demodulator converts blocks of complex baseband samples into bits and
// bytes. All state (previous phase, filter ring, timing phase, pending
// bits) is carried across blocks, so a continuous stream can be fed block
// by block without introducing artificial discontinuities. A Demodulator
// is not safe for concurrent use.
type Demodulator struct {
	sampleRate int
	bitRate    int
	deviation  float64

	samplesPerBit float64

	prevPhase float64

	filterCoeffs []float64
	filterState  []float64

	bitBuffer   []float64
	bitPosition float64

	pendingBits []bool

	tracer trace.Tracer
}

// Stats is a snapshot of the demodulator's configuration and buffer state.
type Stats struct {
	SamplesPerBit   float64
	BitBufferSize   int
	PendingBitCount int
	Deviation       float64
	BitRate         int
	SignalBandwidth float64
}

func NewDemodulator(sampleRate int, bitRate int, deviation float64) *Demodulator {
	result := &Demodulator{
		sampleRate: sampleRate,
		bitRate:    bitRate,
		deviation:  deviation,
		tracer:     new(trace.NoTracer),
	}
	result.init()
	return result
}

func (d *Demodulator) init() {
	d.samplesPerBit = float64(d.sampleRate) / float64(d.bitRate)

	// The filter bandwidth approximates the GFSK signal bandwidth
	// 2*(deviation + bitrate/2), realized as a moving average.
	signalBandwidth := d.SignalBandwidth()
	taps := int(math.Max(float64(d.sampleRate)/signalBandwidth, minFilterTaps))
	taps = min(taps, maxFilterTaps)

	d.filterCoeffs = make([]float64, taps)
	for i := range d.filterCoeffs {
		d.filterCoeffs[i] = 1 / float64(taps)
	}
	d.filterState = make([]float64, taps)

	d.prevPhase = 0
	d.bitBuffer = d.bitBuffer[:0]
	d.bitPosition = 0
	d.pendingBits = d.pendingBits[:0]
}

// SignalBandwidth returns the approximate bandwidth of the configured signal.
func (d *Demodulator) SignalBandwidth() float64 {
	return 2 * (d.deviation + float64(d.bitRate)/2)
}

func (d *Demodulator) SetTracer(tracer trace.Tracer) {
	d.tracer = tracer
}

// SetBitRate reconfigures the bit rate. This resets all stream state, it
// must not be called while a Process call is in flight.
func (d *Demodulator) SetBitRate(bitRate int) {
	d.bitRate = bitRate
	d.init()
}

// SetDeviation reconfigures the nominal frequency deviation, resetting all
// stream state.
func (d *Demodulator) SetDeviation(deviation float64) {
	d.deviation = deviation
	d.init()
}

// Reset clears all stream state without changing the configuration.
func (d *Demodulator) Reset() {
	d.init()
}

// Process demodulates one block of samples and returns the bits decided
// within this block.
func (d *Demodulator) Process(block []complex64) []bool {
	fmOut := d.discriminate(block)
	filtered := d.filter(fmOut)
	bits := d.recoverBits(filtered)

	if d.tracer.Context() == traceFM {
		d.tracer.TraceBlock(traceFM, fmOut)
	}
	if d.tracer.Context() == traceFiltered {
		d.tracer.TraceBlock(traceFiltered, filtered)
	}
	if d.tracer.Context() == traceBits {
		d.tracer.TraceBlock(traceBits, bitsToValues(bits))
	}

	return bits
}

// discriminate computes the instantaneous frequency of each sample from the
// phase difference to its predecessor, normalized by the deviation so that
// a full positive deviation maps to +1 and a full negative one to -1. The
// phase of the last sample is carried over to the next block.
func (d *Demodulator) discriminate(block []complex64) []float64 {
	output := make([]float64, 0, len(block))

	for _, sample := range block {
		phase := math.Atan2(float64(imag(sample)), float64(real(sample)))

		phaseDiff := phase - d.prevPhase
		for phaseDiff > math.Pi {
			phaseDiff -= 2 * math.Pi
		}
		for phaseDiff < -math.Pi {
			phaseDiff += 2 * math.Pi
		}

		frequency := phaseDiff * float64(d.sampleRate) / (2 * math.Pi)
		output = append(output, frequency/d.deviation)

		d.prevPhase = phase
	}

	return output
}

// filter applies the moving average FIR to the discriminator output. The
// filter state persists across blocks.
func (d *Demodulator) filter(input []float64) []float64 {
	output := make([]float64, 0, len(input))

	for _, sample := range input {
		copy(d.filterState[1:], d.filterState[:len(d.filterState)-1])
		d.filterState[0] = sample

		var filtered float64
		for i, s := range d.filterState {
			filtered += s * d.filterCoeffs[i]
		}

		output = append(output, filtered)
	}

	return output
}

// recoverBits slices one bit per samplesPerBit interval, sampling at the
// midpoint of the accumulated bit period. The fractional remainder of the
// position counter carries over to the next bit, so the average bit rate
// stays locked even though samplesPerBit is not integral.
func (d *Demodulator) recoverBits(filtered []float64) []bool {
	var bits []bool

	for _, sample := range filtered {
		d.bitBuffer = append(d.bitBuffer, sample)
		d.bitPosition++

		if d.bitPosition >= d.samplesPerBit {
			midIndex := min(len(d.bitBuffer)/2, len(d.bitBuffer)-1)
			bits = append(bits, d.bitBuffer[midIndex] > 0)

			d.bitBuffer = d.bitBuffer[:0]
			d.bitPosition -= d.samplesPerBit
		}
	}

	return bits
}

// AssembleBytes appends the given bits to the pending bits and drains all
// complete bytes, LSB first. The second return value indicates whether any
// byte could be assembled.
func (d *Demodulator) AssembleBytes(bits []bool) ([]byte, bool) {
	d.pendingBits = append(d.pendingBits, bits...)

	var bytes []byte
	for len(d.pendingBits) >= 8 {
		var b byte
		for i := 0; i < 8; i++ {
			if d.pendingBits[i] {
				b |= 1 << i
			}
		}
		bytes = append(bytes, b)
		d.pendingBits = d.pendingBits[:copy(d.pendingBits, d.pendingBits[8:])]
	}

	if len(bytes) == 0 {
		return nil, false
	}
	return bytes, true
}

// Stats returns a snapshot of the current demodulator state.
func (d *Demodulator) Stats() Stats {
	return Stats{
		SamplesPerBit:   d.samplesPerBit,
		BitBufferSize:   len(d.bitBuffer),
		PendingBitCount: len(d.pendingBits),
		Deviation:       d.deviation,
		BitRate:         d.bitRate,
		SignalBandwidth: d.SignalBandwidth(),
	}
}

func bitsToValues(bits []bool) []float64 {
	result := make([]float64, len(bits))
	for i, bit := range bits {
		if bit {
			result[i] = 1
		}
	}
	return result
}
