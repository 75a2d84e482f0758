// Command split4800 assembles a 4800 file from a client's split submission:
// a discharge file plus long diagnosis and procedure files.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"claimtool/internal/cli"
	"claimtool/internal/config"
	"claimtool/internal/prep"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "split4800",
		Short:        "Build a 4800 file from discharge, DX and PX split files",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, run, stop, err := cli.Start(cmd, "split4800")
			if err != nil {
				return err
			}
			defer stop()

			sc := run.Config.Split
			cli.StringOverride(cmd, "disch", &sc.Disch)
			cli.StringOverride(cmd, "dx", &sc.DX)
			cli.StringOverride(cmd, "px", &sc.PX)
			cli.StringOverride(cmd, "out", &sc.Out)
			if cmd.Flags().Changed("strict") {
				sc.StrictSequences, _ = cmd.Flags().GetBool("strict")
			}

			err = runSplit(ctx, sc)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("split4800 failed")
			}
			return err
		},
	}
	cli.AddConfigFlag(cmd)
	cmd.Flags().String("disch", "", "discharge file")
	cmd.Flags().String("dx", "", "long diagnosis file (PROVNUM|PCN|DXSQN|DX|DXPOA)")
	cmd.Flags().String("px", "", "long procedure file (PROVNUM|PCN|PRCSQN|PROC|PRCDATE)")
	cmd.Flags().String("out", "", "output 4800 file")
	cmd.Flags().Bool("strict", false, "fail on conflicting DX/PX sequence rows instead of keeping the first")
	return cmd
}

func runSplit(ctx context.Context, sc config.SplitConfig) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	encs, rep, err := prep.BuildFromSplit(ctx, prep.SplitInput{
		Disch:           sc.Disch,
		DX:              sc.DX,
		PX:              sc.PX,
		StrictSequences: sc.StrictSequences,
	})
	if err != nil {
		return err
	}
	if _, err := prep.Write4800(ctx, sc.Out, encs); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().
		Int("discharges", rep.Disch).
		Int("dx_rows", rep.DXRows).
		Int("px_rows", rep.PXRows).
		Int("records", rep.Records).
		Msg("split files assembled")
	return nil
}
