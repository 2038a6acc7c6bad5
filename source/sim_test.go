package source

import (
	"io"
	"testing"

	"github.com/kpbenz/hc12rx/chirp"
	"github.com/kpbenz/hc12rx/dsp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGFSKSim_DeliversUnitMagnitudeBlocks(t *testing.T) {
	sim := NewGFSKSim(250_000, 15_000, 30_000, []byte("X"), 100)

	block, err := sim.ReadBlock()

	require.NoError(t, err)
	require.Len(t, block, 100)
	for i, sample := range block {
		assert.InDeltaf(t, 1, dsp.PSD(complex128(sample)), 1e-5, "sample %d", i)
	}
}

func TestGFSKSim_FrameLimit(t *testing.T) {
	// one frame is 2 bytes at ~16.7 samples per bit, well below 300 samples
	sim := NewGFSKSim(250_000, 15_000, 30_000, []byte("X"), 300)
	sim.SetFrameLimit(1)

	_, err := sim.ReadBlock()
	require.NoError(t, err)

	_, err = sim.ReadBlock()
	assert.Equal(t, io.EOF, err)
}

func TestChirpSim_BlocksDecodeToPayload(t *testing.T) {
	payload := []byte("AB")
	sim, err := NewChirpSim(8, 250_000, payload)
	require.NoError(t, err)

	block, err := sim.ReadBlock()
	require.NoError(t, err)
	require.Len(t, block, len(payload)*256)

	result, err := chirp.NewDecoder(8, 125_000).Decode(block)
	require.NoError(t, err)
	assert.Equal(t, payload, result.Bytes)
}

func TestChirpSim_FrameLimit(t *testing.T) {
	sim, err := NewChirpSim(8, 250_000, []byte("A"))
	require.NoError(t, err)
	sim.SetFrameLimit(2)

	for i := 0; i < 2; i++ {
		_, err := sim.ReadBlock()
		require.NoError(t, err)
	}

	_, err = sim.ReadBlock()
	assert.Equal(t, io.EOF, err)
}

func TestChirpSim_RejectsUnsupportedSpreadingFactor(t *testing.T) {
	_, err := NewChirpSim(13, 250_000, []byte("A"))

	assert.Error(t, err)
}
