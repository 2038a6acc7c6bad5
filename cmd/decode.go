package cmd

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"strings"

	"github.com/kpbenz/hc12rx/chirp"
	"github.com/kpbenz/hc12rx/feed"
	"github.com/kpbenz/hc12rx/gfsk"
	"github.com/kpbenz/hc12rx/rx"
	"github.com/kpbenz/hc12rx/trace"
	"github.com/spf13/cobra"
)

// decodeFlags are shared by all commands that run the decode engine.
var decodeFlags = struct {
	mode       string
	sampleRate int
	blockSize  int
	queueSize  int

	bitRate   int
	deviation float64

	spreadingFactor int
	bandwidth       int

	feedAddress string

	traceContext     string
	traceDestination string
}{}

func addDecodeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&decodeFlags.mode, "demod", "gfsk", "demodulation scheme: gfsk | chirp")
	cmd.Flags().IntVar(&decodeFlags.sampleRate, "rate", 250_000, "the sample rate of the IQ stream in Hz")
	cmd.Flags().IntVar(&decodeFlags.blockSize, "blocksize", 4096, "the number of samples per block")
	cmd.Flags().IntVar(&decodeFlags.queueSize, "queue", 8, "the capacity of the block queue in blocks")

	cmd.Flags().IntVar(&decodeFlags.bitRate, "bitrate", 15000, "gfsk: the bit rate in bit/s (5000 | 15000 | 58000 | 236000)")
	cmd.Flags().Float64Var(&decodeFlags.deviation, "deviation", 30_000, "gfsk: the nominal frequency deviation in Hz")

	cmd.Flags().IntVar(&decodeFlags.spreadingFactor, "sf", 7, "chirp: the spreading factor (7-12)")
	cmd.Flags().IntVar(&decodeFlags.bandwidth, "bandwidth", 125_000, "chirp: the channel bandwidth in Hz")

	cmd.Flags().StringVar(&decodeFlags.feedAddress, "feed", "", "serve decoded frames on this TCP address")

	cmd.Flags().StringVar(&decodeFlags.traceContext, "trace", "", "fm | filtered | bits | spectrum | symbols")
	cmd.Flags().StringVar(&decodeFlags.traceDestination, "trace_to", "", "file:<filename> | udp:<host:port>")
}

// runDecode wires the given source to the selected decode path and runs
// the receiver until the source ends or the context is canceled.
func runDecode(ctx context.Context, src rx.Source) {
	out := io.Writer(os.Stdout)

	var feedServer *feed.Server
	if decodeFlags.feedAddress != "" {
		var err error
		feedServer, err = feed.NewServer(decodeFlags.feedAddress, formatVersion())
		if err != nil {
			log.Fatalf("cannot start feed server: %v", err)
		}
		defer feedServer.Stop()
		out = io.MultiWriter(out, feedServer)
	}

	demod, err := newDecodePath(rx.NewFrameWriter(out))
	if err != nil {
		log.Fatal(err)
	}

	receiver := rx.NewReceiver(src, demod)
	receiver.SetQueueSize(decodeFlags.queueSize)

	err = receiver.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}

	if closer, ok := src.(io.Closer); ok {
		closer.Close()
	}
}

func newDecodePath(out *rx.FrameWriter) (rx.Demodulator, error) {
	tracer, ok := createTracer()
	if !ok {
		tracer = new(trace.NoTracer)
	} else {
		tracer.Start()
	}

	switch strings.ToLower(decodeFlags.mode) {
	case "gfsk":
		demod := gfsk.NewDemodulator(decodeFlags.sampleRate, decodeFlags.bitRate, decodeFlags.deviation)
		demod.SetTracer(tracer)
		return rx.NewGFSKPath(demod, out), nil
	case "chirp":
		decoder := chirp.NewDecoder(decodeFlags.spreadingFactor, decodeFlags.bandwidth)
		decoder.SetTracer(tracer)
		return rx.NewChirpPath(decoder, out), nil
	default:
		return nil, errors.New("unknown demodulation scheme: " + decodeFlags.mode)
	}
}

func createTracer() (trace.Tracer, bool) {
	if decodeFlags.traceDestination == "" {
		return nil, false
	}

	protocol, destination, found := strings.Cut(decodeFlags.traceDestination, ":")
	if !found {
		log.Printf("invalid trace destination %q", decodeFlags.traceDestination)
		return nil, false
	}

	switch strings.ToLower(protocol) {
	case "file":
		return trace.NewFileTracer(decodeFlags.traceContext, destination), true
	case "udp":
		return trace.NewUDPTracer(decodeFlags.traceContext, destination), true
	default:
		log.Printf("unknown trace protocol %q", protocol)
		return nil, false
	}
}
