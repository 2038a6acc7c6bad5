package cmd

import (
	"context"
	"log"
	"strings"

	"github.com/kpbenz/hc12rx/rx"
	"github.com/kpbenz/hc12rx/source"
	"github.com/spf13/cobra"
)

var simFlags = struct {
	payload  string
	frames   int
	realtime bool
}{}

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "decode a simulated HC-12 signal, useful to verify the setup without hardware",
	Run:   runWithCtx(runSim),
}

func init() {
	rootCmd.AddCommand(simCmd)
	addDecodeFlags(simCmd)

	simCmd.Flags().StringVar(&simFlags.payload, "payload", "HELLO HC12", "the payload carried by each simulated frame")
	simCmd.Flags().IntVar(&simFlags.frames, "frames", 10, "the number of frames to simulate, 0 for an endless stream")
	simCmd.Flags().BoolVar(&simFlags.realtime, "realtime", false, "pace the stream to the nominal sample rate")
}

func runSim(ctx context.Context, cmd *cobra.Command, args []string) {
	var src rx.Source

	switch strings.ToLower(decodeFlags.mode) {
	case "gfsk":
		sim := source.NewGFSKSim(decodeFlags.sampleRate, decodeFlags.bitRate, decodeFlags.deviation, []byte(simFlags.payload), decodeFlags.blockSize)
		sim.SetFrameLimit(simFlags.frames)
		sim.SetRealtime(simFlags.realtime)
		src = sim
	case "chirp":
		sim, err := source.NewChirpSim(decodeFlags.spreadingFactor, decodeFlags.sampleRate, []byte(simFlags.payload))
		if err != nil {
			log.Fatal(err)
		}
		sim.SetFrameLimit(simFlags.frames)
		sim.SetRealtime(simFlags.realtime)
		src = sim
	default:
		log.Fatalf("unknown demodulation scheme: %s", decodeFlags.mode)
	}

	runDecode(ctx, src)
}
