package source

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tt := []struct {
		value    string
		expected Format
		invalid  bool
	}{
		{value: "u8", expected: FormatUint8},
		{value: "cf32", expected: FormatComplex64},
		{value: "s16", invalid: true},
		{value: "", invalid: true},
	}
	for _, tc := range tt {
		t.Run(tc.value, func(t *testing.T) {
			format, err := ParseFormat(tc.value)

			if tc.invalid {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, format)
			}
		})
	}
}

func TestDecodeUint8(t *testing.T) {
	block := decodeUint8(nil, []byte{0, 255, 128, 127})

	require.Len(t, block, 2)
	assert.InDelta(t, -1, real(block[0]), 1e-6)
	assert.InDelta(t, 1, imag(block[0]), 1e-6)
	// 127.5 is the zero level, 127 and 128 sit half a step around it
	assert.InDelta(t, 0, real(block[1]), 0.005)
	assert.InDelta(t, 0, imag(block[1]), 0.005)
}

func TestDecodeUint8_DropsIncompletePair(t *testing.T) {
	block := decodeUint8(nil, []byte{0, 255, 128})

	assert.Len(t, block, 1)
}

func TestDecodeComplex64(t *testing.T) {
	buf := make([]byte, 0, 16)
	for _, value := range []float32{0.5, -0.25, 1, 0} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(value))
	}

	block := decodeComplex64(nil, buf)

	require.Len(t, block, 2)
	assert.Equal(t, complex(float32(0.5), float32(-0.25)), block[0])
	assert.Equal(t, complex(float32(1), float32(0)), block[1])
}

func TestDecodeComplex64_DropsIncompletePair(t *testing.T) {
	block := decodeComplex64(nil, make([]byte, 15))

	assert.Len(t, block, 1)
}

func TestBytesPerSample(t *testing.T) {
	assert.Equal(t, 2, FormatUint8.bytesPerSample())
	assert.Equal(t, 8, FormatComplex64.bytesPerSample())
}
