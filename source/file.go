package source

import (
	"fmt"
	"io"
	"os"
)

// File replays a captured IQ stream from a file. It delivers fixed-size
// blocks and ends the stream with io.EOF, an incomplete trailing block is
// delivered as a shorter block.
type File struct {
	reader    io.ReadCloser
	format    Format
	blockSize int
	buf       []byte
}

func OpenFile(filename string, format Format, blockSize int) (*File, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open IQ file: %w", err)
	}
	return NewFile(f, format, blockSize), nil
}

// NewFile replays the IQ stream from the given reader. The reader is
// closed when the stream ends.
func NewFile(reader io.ReadCloser, format Format, blockSize int) *File {
	return &File{
		reader:    reader,
		format:    format,
		blockSize: blockSize,
		buf:       make([]byte, blockSize*format.bytesPerSample()),
	}
}

func (f *File) ReadBlock() ([]complex64, error) {
	n, err := io.ReadFull(f.reader, f.buf)
	if n == 0 {
		f.reader.Close()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}

	block := f.format.decode(make([]complex64, 0, f.blockSize), f.buf[:n])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		// deliver the trailing partial block, the next call ends the stream
		f.reader.Close()
		f.reader = eofReader{}
	} else if err != nil {
		return block, err
	}
	return block, nil
}

func (f *File) Close() error {
	return f.reader.Close()
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
func (eofReader) Close() error             { return nil }
