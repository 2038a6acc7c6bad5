package rx

import (
	"github.com/kpbenz/hc12rx/chirp"
	"github.com/kpbenz/hc12rx/dsp"
	"github.com/kpbenz/hc12rx/gfsk"
)

const snrWindow = 10

// GFSKPath is the FM decode path: demodulate a block into bits, assemble
// complete bytes, and write them out as one frame.
type GFSKPath struct {
	demod *gfsk.Demodulator
	out   *FrameWriter
}

func NewGFSKPath(demod *gfsk.Demodulator, out *FrameWriter) *GFSKPath {
	return &GFSKPath{
		demod: demod,
		out:   out,
	}
}

func (p *GFSKPath) Demodulate(block []complex64) error {
	bits := p.demod.Process(block)
	frame, ok := p.demod.AssembleBytes(bits)
	if !ok {
		return nil
	}
	return p.out.WriteFrame(frame)
}

// ChirpPath is the chirp decode path: decode a block into symbols and
// bytes and write the bytes out together with a smoothed SNR estimate.
type ChirpPath struct {
	decoder *chirp.Decoder
	out     *FrameWriter
	snr     *dsp.RollingMean[float64]
}

func NewChirpPath(decoder *chirp.Decoder, out *FrameWriter) *ChirpPath {
	return &ChirpPath{
		decoder: decoder,
		out:     out,
		snr:     dsp.NewRollingMean[float64](snrWindow),
	}
}

func (p *ChirpPath) Demodulate(block []complex64) error {
	result, err := p.decoder.Decode(block)
	if err != nil {
		return err
	}
	if len(result.Bytes) == 0 {
		return nil
	}
	return p.out.WriteFrameWithSNR(result.Bytes, p.snr.Put(result.SNR))
}
