package cmd

import (
	"context"
	"log"

	"github.com/kpbenz/hc12rx/source"
	"github.com/spf13/cobra"
)

var wsFlags = struct {
	url    string
	format string
}{}

var wsCmd = &cobra.Command{
	Use:   "ws",
	Short: "decode HC-12 traffic from a websocket IQ stream",
	Run:   runWithCtx(runWS),
}

func init() {
	rootCmd.AddCommand(wsCmd)
	addDecodeFlags(wsCmd)

	wsCmd.Flags().StringVar(&wsFlags.url, "url", "ws://localhost:8073/iq", "the websocket endpoint that serves the IQ stream")
	wsCmd.Flags().StringVar(&wsFlags.format, "format", "cf32", "the IQ sample format: u8 | cf32")
}

func runWS(ctx context.Context, cmd *cobra.Command, args []string) {
	format, err := source.ParseFormat(wsFlags.format)
	if err != nil {
		log.Fatal(err)
	}

	src, err := source.DialWebsocket(wsFlags.url, format, decodeFlags.blockSize)
	if err != nil {
		log.Fatal(err)
	}

	runDecode(ctx, src)
}
