package source

import (
	"io"
	"math"
	"time"

	"github.com/kpbenz/hc12rx/chirp"
)

// leadInByte precedes each simulated GFSK frame so that the receiver's
// filter settles before the payload starts.
const leadInByte = 0xAA

// GFSKSim generates a continuous GFSK signal carrying the given payload
// frame after frame, with continuous phase across bit and block
// boundaries. It is used for demos and as a test vector source.
type GFSKSim struct {
	sampleRate    int
	deviation     float64
	samplesPerBit float64
	blockSize     int

	bits     []bool
	bitIndex int
	bitPhase float64
	phase    float64

	frameLimit int
	framesSent int
	realtime   bool
}

func NewGFSKSim(sampleRate int, bitRate int, deviation float64, payload []byte, blockSize int) *GFSKSim {
	frame := append([]byte{leadInByte}, payload...)
	return &GFSKSim{
		sampleRate:    sampleRate,
		deviation:     deviation,
		samplesPerBit: float64(sampleRate) / float64(bitRate),
		blockSize:     blockSize,
		bits:          bytesToBits(frame),
	}
}

// SetFrameLimit limits the number of frames before the stream ends, 0
// streams endlessly.
func (s *GFSKSim) SetFrameLimit(frames int) {
	s.frameLimit = frames
}

// SetRealtime paces block delivery to the nominal sample rate.
func (s *GFSKSim) SetRealtime(realtime bool) {
	s.realtime = realtime
}

func (s *GFSKSim) ReadBlock() ([]complex64, error) {
	if s.frameLimit > 0 && s.framesSent >= s.frameLimit {
		return nil, io.EOF
	}
	if s.realtime {
		time.Sleep(time.Duration(float64(s.blockSize) / float64(s.sampleRate) * float64(time.Second)))
	}

	block := make([]complex64, s.blockSize)
	for i := range block {
		frequency := -s.deviation
		if s.bits[s.bitIndex] {
			frequency = s.deviation
		}

		s.phase += 2 * math.Pi * frequency / float64(s.sampleRate)
		for s.phase > math.Pi {
			s.phase -= 2 * math.Pi
		}
		for s.phase < -math.Pi {
			s.phase += 2 * math.Pi
		}
		block[i] = complex(float32(math.Cos(s.phase)), float32(math.Sin(s.phase)))

		s.bitPhase++
		if s.bitPhase >= s.samplesPerBit {
			s.bitPhase -= s.samplesPerBit
			s.bitIndex++
			if s.bitIndex == len(s.bits) {
				s.bitIndex = 0
				s.framesSent++
			}
		}
	}

	return block, nil
}

// ChirpSim generates chirp-modulated frames carrying the given payload,
// one frame waveform per block.
type ChirpSim struct {
	modulator *chirp.Modulator
	symbols   []uint16

	sampleRate int
	frameLimit int
	framesSent int
	realtime   bool
}

func NewChirpSim(spreadingFactor int, sampleRate int, payload []byte) (*ChirpSim, error) {
	symbols, err := chirp.BytesToSymbols(payload, spreadingFactor)
	if err != nil {
		return nil, err
	}
	return &ChirpSim{
		modulator:  chirp.NewModulator(spreadingFactor),
		symbols:    symbols,
		sampleRate: sampleRate,
	}, nil
}

// SetFrameLimit limits the number of frames before the stream ends, 0
// streams endlessly.
func (s *ChirpSim) SetFrameLimit(frames int) {
	s.frameLimit = frames
}

// SetRealtime paces frame delivery to the nominal sample rate.
func (s *ChirpSim) SetRealtime(realtime bool) {
	s.realtime = realtime
}

func (s *ChirpSim) ReadBlock() ([]complex64, error) {
	if s.frameLimit > 0 && s.framesSent >= s.frameLimit {
		return nil, io.EOF
	}

	blockSize := len(s.symbols) * s.modulator.SymbolSize()
	if s.realtime {
		time.Sleep(time.Duration(float64(blockSize) / float64(s.sampleRate) * float64(time.Second)))
	}

	s.framesSent++
	return s.modulator.Modulate(make([]complex64, 0, blockSize), s.symbols), nil
}

func bytesToBits(frame []byte) []bool {
	bits := make([]bool, 0, len(frame)*8)
	for _, b := range frame {
		for i := 0; i < 8; i++ {
			bits = append(bits, b&(1<<i) != 0)
		}
	}
	return bits
}
