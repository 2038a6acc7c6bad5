package chirp

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Modulator synthesizes chirp waveform blocks: one upchirp per symbol,
// cyclically rotated by the symbol value. It is the counterpart of the
// Decoder, used by the signal simulator and the tests; decoding a
// modulated block with the same spreading factor yields the symbols again.
type Modulator struct {
	spreadingFactor int
	symbolSize      int
	upchirp         []complex128
}

func NewModulator(spreadingFactor int) *Modulator {
	symbolSize := 1 << spreadingFactor
	downchirp := generateDownchirp(symbolSize)
	upchirp := make([]complex128, symbolSize)
	for i, value := range downchirp {
		upchirp[i] = cmplx.Conj(value)
	}

	return &Modulator{
		spreadingFactor: spreadingFactor,
		symbolSize:      symbolSize,
		upchirp:         upchirp,
	}
}

// SymbolSize returns the number of samples per symbol, 2^SF.
func (m *Modulator) SymbolSize() int {
	return m.symbolSize
}

// Modulate appends the waveform for the given symbols to block and
// returns the result.
func (m *Modulator) Modulate(block []complex64, symbols []uint16) []complex64 {
	n := m.symbolSize
	mask := uint16(n - 1)

	for _, symbol := range symbols {
		shift := float64(symbol & mask)
		for k := 0; k < n; k++ {
			offset := 2 * math.Pi * float64(k) * shift / float64(n)
			rotation := complex(math.Cos(offset), math.Sin(offset))
			block = append(block, complex64(m.upchirp[k]*rotation))
		}
	}

	return block
}

// BytesToSymbols spreads the given bytes over symbols of the given bit
// width, the inverse of the decoder's byte packing: SF 8 maps bytes to
// symbols directly, SF 9-12 put each byte into the symbol's top 8 bits,
// SF 7 splits the byte stream into 7-bit groups, MSB first.
func BytesToSymbols(payload []byte, spreadingFactor int) ([]uint16, error) {
	sf := spreadingFactor

	switch {
	case sf == 7:
		var symbols []uint16
		var bitBuffer uint32
		bitCount := 0
		for _, b := range payload {
			bitBuffer = bitBuffer<<8 | uint32(b)
			bitCount += 8
			for bitCount >= sf {
				bitCount -= sf
				symbols = append(symbols, uint16(bitBuffer>>bitCount)&0x7F)
			}
		}
		if bitCount > 0 {
			symbols = append(symbols, uint16(bitBuffer<<(sf-bitCount))&0x7F)
		}
		return symbols, nil
	case sf == 8:
		symbols := make([]uint16, len(payload))
		for i, b := range payload {
			symbols[i] = uint16(b)
		}
		return symbols, nil
	case sf >= 9 && sf <= 12:
		symbols := make([]uint16, len(payload))
		for i, b := range payload {
			symbols[i] = uint16(b) << (sf - 8)
		}
		return symbols, nil
	default:
		return nil, fmt.Errorf("unsupported spreading factor: %d", sf)
	}
}
