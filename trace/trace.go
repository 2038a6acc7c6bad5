// Package trace streams internal values of the decoder pipeline to a file
// or a UDP destination, one line per value set. The lines are meant to be
// consumed by an external plotting tool.
package trace

import (
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
)

type Tracer interface {
	Context() string
	Start()
	Trace(context string, format string, args ...any)
	TraceBlock(context string, values []float64)
	Stop()
}

// NoTracer discards everything.
type NoTracer struct{}

func (t *NoTracer) Context() string              { return "" }
func (t *NoTracer) Start()                       {}
func (t *NoTracer) Trace(string, string, ...any) {}
func (t *NoTracer) TraceBlock(string, []float64) {}
func (t *NoTracer) Stop()                        {}

// lineTracer writes trace lines to a destination that is opened lazily on
// Start and closed on Stop. Only lines for the configured context are
// written, everything else is dropped.
type lineTracer struct {
	context string
	open    func() (io.WriteCloser, error)
	out     io.WriteCloser
}

func (t *lineTracer) Context() string {
	return t.context
}

func (t *lineTracer) Start() {
	if t.out != nil {
		return
	}

	var err error
	t.out, err = t.open()
	if err != nil {
		t.out = nil
		log.Printf("cannot start trace: %v", err)
	}
}

func (t *lineTracer) Trace(context string, format string, args ...any) {
	if t.out == nil {
		return
	}
	if context != t.context {
		return
	}

	fmt.Fprintf(t.out, format, args...)
	if !strings.HasSuffix(format, "\n") {
		fmt.Fprintln(t.out)
	}
}

func (t *lineTracer) TraceBlock(context string, values []float64) {
	if t.out == nil {
		return
	}
	if context != t.context {
		return
	}

	fields := make([]string, len(values))
	for i, value := range values {
		fields[i] = strconv.FormatFloat(value, 'f', -1, 64)
	}
	fmt.Fprintln(t.out, strings.Join(fields, ";"))
}

func (t *lineTracer) Stop() {
	if t.out == nil {
		return
	}

	t.out.Close()
	t.out = nil
}

type FileTracer struct {
	lineTracer
}

func NewFileTracer(context string, filename string) *FileTracer {
	result := &FileTracer{}
	result.context = context
	result.open = func() (io.WriteCloser, error) {
		return os.Create(filename)
	}
	return result
}

type UDPTracer struct {
	lineTracer
}

func NewUDPTracer(context string, destination string) *UDPTracer {
	result := &UDPTracer{}
	result.context = context
	result.open = func() (io.WriteCloser, error) {
		addr, err := net.ResolveUDPAddr("udp", destination)
		if err != nil {
			return nil, err
		}
		return net.DialUDP("udp", nil, addr)
	}
	return result
}
