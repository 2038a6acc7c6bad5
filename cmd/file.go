package cmd

import (
	"context"
	"log"

	"github.com/kpbenz/hc12rx/source"
	"github.com/spf13/cobra"
)

var fileFlags = struct {
	format string
}{}

var fileCmd = &cobra.Command{
	Use:   "file <filename>",
	Short: "decode HC-12 traffic from a captured IQ file",
	Args:  cobra.ExactArgs(1),
	Run:   runWithCtx(runFile),
}

func init() {
	rootCmd.AddCommand(fileCmd)
	addDecodeFlags(fileCmd)

	fileCmd.Flags().StringVar(&fileFlags.format, "format", "u8", "the IQ sample format: u8 | cf32")
}

func runFile(ctx context.Context, cmd *cobra.Command, args []string) {
	format, err := source.ParseFormat(fileFlags.format)
	if err != nil {
		log.Fatal(err)
	}

	src, err := source.OpenFile(args[0], format, decodeFlags.blockSize)
	if err != nil {
		log.Fatal(err)
	}

	runDecode(ctx, src)
}
