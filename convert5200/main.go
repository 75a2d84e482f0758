// Command convert5200 converts a headerless 5200 extract into a 4800 file.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"claimtool/internal/cli"
	"claimtool/internal/config"
	"claimtool/internal/flatfile"
	"claimtool/internal/prep"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "convert5200",
		Short:        "Convert a 5200 extract to the 4800 layout",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, run, stop, err := cli.Start(cmd, "convert5200")
			if err != nil {
				return err
			}
			defer stop()

			cc := run.Config.Convert5200
			cli.StringOverride(cmd, "in", &cc.In)
			cli.StringOverride(cmd, "out", &cc.Out)
			cli.StringOverride(cmd, "encoding", &cc.Encoding)

			err = runConvert(ctx, cc)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("convert5200 failed")
			}
			return err
		},
	}
	cli.AddConfigFlag(cmd)
	cmd.Flags().String("in", "", "5200 input file")
	cmd.Flags().String("out", "", "output 4800 file")
	cmd.Flags().String("encoding", "", "input encoding (windows-1252 or utf-8)")
	return cmd
}

func runConvert(ctx context.Context, cc config.ConvertConfig) error {
	if err := cc.Validate(); err != nil {
		return err
	}
	remap, err := prep.ParseRemap(cc.ProvnumRemap)
	if err != nil {
		return err
	}
	var layout map[int]string
	if len(cc.Layout) > 0 {
		if layout, err = flatfile.ParseLayout(cc.Layout); err != nil {
			return err
		}
	}

	encs, rep, err := prep.Convert5200(ctx, prep.ConvertInput{
		Path:         cc.In,
		Encoding:     cc.Encoding,
		Layout:       layout,
		ProvnumRemap: remap,
		SexDecode:    cc.SexDecode,
	})
	if err != nil {
		return err
	}
	if _, err := prep.Write4800(ctx, cc.Out, encs); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Int("read", rep.Read).Int("records", rep.Records).
		Int("dupes", rep.FullDupes+rep.KeyDupes).Msg("5200 converted")
	return nil
}
