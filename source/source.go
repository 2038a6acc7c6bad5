// Package source provides the sample sources that feed the receiver: file
// replay, a synthetic signal generator, a TCI-connected SDR, and a
// websocket stream. All sources deliver ordered blocks of complex baseband
// samples with amplitudes normalized to ±1.
package source

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Format describes the binary encoding of an IQ sample stream.
type Format string

const (
	// FormatUint8 is the RTL-SDR native format: interleaved unsigned bytes,
	// one I/Q pair per two bytes, zero at 127.5.
	FormatUint8 Format = "u8"
	// FormatComplex64 is interleaved little-endian float32 I/Q pairs.
	FormatComplex64 Format = "cf32"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatUint8:
		return FormatUint8, nil
	case FormatComplex64:
		return FormatComplex64, nil
	default:
		return "", fmt.Errorf("unknown IQ format %q", s)
	}
}

// decodeUint8 appends the samples encoded in buf to block, normalizing
// each byte to [-1, 1]. An incomplete trailing pair is dropped.
func decodeUint8(block []complex64, buf []byte) []complex64 {
	for i := 0; i+1 < len(buf); i += 2 {
		iNorm := (float32(buf[i]) - 127.5) / 127.5
		qNorm := (float32(buf[i+1]) - 127.5) / 127.5
		block = append(block, complex(iNorm, qNorm))
	}
	return block
}

// decodeComplex64 appends the samples encoded in buf to block. An
// incomplete trailing pair is dropped.
func decodeComplex64(block []complex64, buf []byte) []complex64 {
	for i := 0; i+7 < len(buf); i += 8 {
		iSample := math.Float32frombits(binary.LittleEndian.Uint32(buf[i:]))
		qSample := math.Float32frombits(binary.LittleEndian.Uint32(buf[i+4:]))
		block = append(block, complex(iSample, qSample))
	}
	return block
}

func (f Format) bytesPerSample() int {
	if f == FormatComplex64 {
		return 8
	}
	return 2
}

func (f Format) decode(block []complex64, buf []byte) []complex64 {
	if f == FormatComplex64 {
		return decodeComplex64(block, buf)
	}
	return decodeUint8(block, buf)
}
