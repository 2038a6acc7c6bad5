package rx

import (
	"fmt"
	"io"
	"strings"
)

// FrameWriter renders decoded frames as text lines: a hex dump followed by
// the printable ASCII rendering of the frame. The textual format is the
// receiver's only output, anything else is up to the consumer of the
// output stream.
type FrameWriter struct {
	out io.Writer
}

func NewFrameWriter(out io.Writer) *FrameWriter {
	return &FrameWriter{
		out: out,
	}
}

func (w *FrameWriter) WriteFrame(frame []byte) error {
	_, err := fmt.Fprintf(w.out, "%s  |%s|\n", formatHex(frame), formatASCII(frame))
	return err
}

func (w *FrameWriter) WriteFrameWithSNR(frame []byte, snr float64) error {
	_, err := fmt.Fprintf(w.out, "%s  |%s|  snr=%.1fdB\n", formatHex(frame), formatASCII(frame), snr)
	return err
}

func formatHex(frame []byte) string {
	fields := make([]string, len(frame))
	for i, b := range frame {
		fields[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(fields, " ")
}

func formatASCII(frame []byte) string {
	var result strings.Builder
	for _, b := range frame {
		if b >= 0x20 && b < 0x7F {
			result.WriteByte(b)
		} else {
			result.WriteByte('.')
		}
	}
	return result.String()
}
