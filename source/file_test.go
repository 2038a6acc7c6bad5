package source

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_ReadBlock(t *testing.T) {
	// 5 u8 samples, block size 4: one full block, one partial block, EOF
	data := []byte{0, 0, 255, 255, 0, 255, 255, 0, 128, 127}
	file := NewFile(io.NopCloser(bytes.NewReader(data)), FormatUint8, 4)

	block, err := file.ReadBlock()
	require.NoError(t, err)
	assert.Len(t, block, 4)

	block, err = file.ReadBlock()
	require.NoError(t, err)
	assert.Len(t, block, 1)

	_, err = file.ReadBlock()
	assert.Equal(t, io.EOF, err)
}

func TestFile_ReadBlock_ExactMultiple(t *testing.T) {
	file := NewFile(io.NopCloser(bytes.NewReader(make([]byte, 8))), FormatUint8, 4)

	block, err := file.ReadBlock()
	require.NoError(t, err)
	assert.Len(t, block, 4)

	_, err = file.ReadBlock()
	assert.Equal(t, io.EOF, err)
}

func TestFile_ReadBlock_EmptyFile(t *testing.T) {
	file := NewFile(io.NopCloser(bytes.NewReader(nil)), FormatUint8, 4)

	_, err := file.ReadBlock()

	assert.Equal(t, io.EOF, err)
}
