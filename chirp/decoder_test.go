package chirp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBandwidth = 125_000

func TestDecode_Roundtrip(t *testing.T) {
	tt := []struct {
		desc            string
		spreadingFactor int
		payload         []byte
	}{
		{"direct byte mapping", 8, []byte("ABC")},
		{"narrow symbols", 7, []byte("HC12-OK")},
		{"wide symbols", 9, []byte{0x41, 0x42, 0x43}},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			symbols, err := BytesToSymbols(tc.payload, tc.spreadingFactor)
			require.NoError(t, err)

			modulator := NewModulator(tc.spreadingFactor)
			block := modulator.Modulate(nil, symbols)

			decoder := NewDecoder(tc.spreadingFactor, testBandwidth)
			result, err := decoder.Decode(block)

			require.NoError(t, err)
			assert.Equal(t, symbols, result.Symbols)
			assert.Equal(t, tc.payload, result.Bytes)
		})
	}
}

func TestDecode_EmptyBlock(t *testing.T) {
	decoder := NewDecoder(8, testBandwidth)

	_, err := decoder.Decode(nil)

	assert.Error(t, err)
}

func TestDecode_UnsupportedSpreadingFactor(t *testing.T) {
	decoder := NewDecoder(13, testBandwidth)
	block := NewModulator(13).Modulate(nil, []uint16{5})

	result, err := decoder.Decode(block)

	require.Error(t, err)
	assert.Equal(t, []uint16{5}, result.Symbols)
	assert.Empty(t, result.Bytes)
}

func TestSymbolsToBytes(t *testing.T) {
	tt := []struct {
		desc            string
		spreadingFactor int
		symbols         []uint16
		expected        []byte
	}{
		{"SF8 maps directly", 8, []uint16{0x41, 0x42, 0x43}, []byte{0x41, 0x42, 0x43}},
		{"SF12 takes the top 8 bits", 12, []uint16{0x410, 0x420, 0x430}, []byte{0x41, 0x42, 0x43}},
		{"SF7 packs 8 symbols into 7 bytes", 7, []uint16{1, 2, 3, 4, 5, 6, 7, 8}, []byte{0x02, 0x08, 0x18, 0x40, 0xA1, 0x83, 0x88}},
		{"SF7 zero-pads a trailing group", 7, []uint16{0x7F}, []byte{0xFE}},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			decoder := NewDecoder(tc.spreadingFactor, testBandwidth)

			bytes, err := decoder.symbolsToBytes(tc.symbols)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, bytes)
		})
	}
}

func TestSymbolsToBytes_UnsupportedSpreadingFactor(t *testing.T) {
	decoder := NewDecoder(6, testBandwidth)

	_, err := decoder.symbolsToBytes([]uint16{1})

	assert.Error(t, err)
}

func TestBytesToSymbols_InverseOfPacking(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x7F, 0x80}

	for sf := MinSpreadingFactor; sf <= MaxSpreadingFactor; sf++ {
		symbols, err := BytesToSymbols(payload, sf)
		require.NoError(t, err)

		decoder := NewDecoder(sf, testBandwidth)
		bytes, err := decoder.symbolsToBytes(symbols)
		require.NoError(t, err)

		assert.Equalf(t, payload, bytes, "SF %d", sf)
	}
}

func TestLocateSync_FindsHighEnergyWindow(t *testing.T) {
	decoder := NewDecoder(7, testBandwidth)
	require.Equal(t, 128, decoder.SymbolSize())

	block := make([]complex64, 512)
	for i := range block {
		block[i] = complex(0.01, 0)
	}
	for i := 96; i < 96+128; i++ {
		block[i] = complex(1, 0)
	}

	assert.Equal(t, 96, decoder.locateSync(block))
}

func TestLocateSync_ShortBlock(t *testing.T) {
	decoder := NewDecoder(8, testBandwidth)

	block := make([]complex64, decoder.SymbolSize()/2)

	assert.Equal(t, 0, decoder.locateSync(block))
}

func TestEstimateSNR(t *testing.T) {
	tt := []struct {
		desc     string
		block    []complex64
		expected float64
	}{
		{
			desc:     "constant power has no variance",
			block:    []complex64{complex(1, 0), complex(0, 1), complex(-1, 0)},
			expected: 0,
		},
		{
			// powers 1 and 9: mean 5, std dev 4, 10*log10(5/4)
			desc:     "mixed power",
			block:    []complex64{complex(1, 0), complex(3, 0)},
			expected: 0.9691,
		},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			assert.InDelta(t, tc.expected, estimateSNR(tc.block), 1e-3)
		})
	}
}

func TestSetSpreadingFactor(t *testing.T) {
	tt := []struct {
		desc     string
		value    int
		expected int
	}{
		{"within range", 9, 9},
		{"clamped to maximum", 13, 12},
		{"clamped to minimum", 3, 7},
	}
	for _, tc := range tt {
		t.Run(tc.desc, func(t *testing.T) {
			decoder := NewDecoder(8, testBandwidth)

			decoder.SetSpreadingFactor(tc.value)

			assert.Equal(t, tc.expected, decoder.SpreadingFactor())
			assert.Equal(t, 1<<tc.expected, decoder.SymbolSize())
			assert.Len(t, decoder.downchirp, 1<<tc.expected)
		})
	}
}
