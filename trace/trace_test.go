package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTracer(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "trace.txt")
	tracer := NewFileTracer("bits", filename)
	require.Equal(t, "bits", tracer.Context())

	tracer.Start()
	tracer.Trace("bits", "frame %d", 1)
	tracer.TraceBlock("bits", []float64{1, -1, 0.5})
	tracer.Trace("spectrum", "dropped")
	tracer.Stop()

	content, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "frame 1\n1;-1;0.5\n", string(content))
}

func TestLineTracer_SilentBeforeStart(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "trace.txt")
	tracer := NewFileTracer("bits", filename)

	tracer.Trace("bits", "dropped")
	tracer.TraceBlock("bits", []float64{1})

	_, err := os.Stat(filename)
	assert.True(t, os.IsNotExist(err))
}

func TestNoTracer(t *testing.T) {
	tracer := &NoTracer{}

	assert.Empty(t, tracer.Context())
	tracer.Start()
	tracer.Trace("bits", "value %d", 1)
	tracer.TraceBlock("bits", []float64{1})
	tracer.Stop()
}
