package cmd

import (
	"context"
	"log"

	"github.com/kpbenz/hc12rx/source"
	"github.com/spf13/cobra"
)

var tciFlags = struct {
	host string
	trx  int
}{}

var tciCmd = &cobra.Command{
	Use:   "tci",
	Short: "decode HC-12 traffic from a TCI IQ stream",
	Run:   runWithCtx(runTCI),
}

func init() {
	rootCmd.AddCommand(tciCmd)
	addDecodeFlags(tciCmd)

	tciCmd.Flags().StringVar(&tciFlags.host, "host", "localhost:40001", "the TCI host and port")
	tciCmd.Flags().IntVar(&tciFlags.trx, "trx", 0, "the zero-based index of the TCI trx")
}

func runTCI(ctx context.Context, cmd *cobra.Command, args []string) {
	src, err := source.DialTCI(tciFlags.host, tciFlags.trx, decodeFlags.sampleRate)
	if err != nil {
		log.Fatal(err)
	}

	runDecode(ctx, src)
}
