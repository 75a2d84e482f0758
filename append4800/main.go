// Command append4800 combines successive 4800 deliveries into one file.
// Later files replace earlier records with the same PROVNUM/PCN.
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
		Use:          "append4800 [file...]",
		Short:        "Append 4800 files, oldest first",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, run, stop, err := cli.Start(cmd, "append4800")
			if err != nil {
				return err
			}
			defer stop()

			ac := run.Config.Append
			if len(args) > 0 {
				ac.Files = args
			}
			cli.StringOverride(cmd, "out", &ac.Out)

			err = runAppend(ctx, ac)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("append4800 failed")
			}
			return err
		},
	}
	cli.AddConfigFlag(cmd)
	cmd.Flags().String("out", "", "output 4800 file")
	return cmd
}

func runAppend(ctx context.Context, ac config.AppendConfig) error {
	if err := ac.Validate(); err != nil {
		return err
	}
	encs, checks, err := prep.Append(ctx, ac.Files, flatfile.Options{})
	if err != nil {
		return err
	}
	if _, err := prep.Write4800(ctx, ac.Out, encs); err != nil {
		return err
	}
	dupes := 0
	for _, c := range checks {
		dupes += c.Dupes
	}
	zerolog.Ctx(ctx).Info().Int("files", len(ac.Files)).Int("replaced", dupes).Int("records", len(encs)).
		Msg("4800 files appended")
	return nil
}
