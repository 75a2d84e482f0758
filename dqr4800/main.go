// Command dqr4800 derives the data-quality-review tables from a 4800 file:
// discharges, long diagnoses and procedures, the attribute summary and the
// physician reference. Tables are loaded into Postgres, written as Parquet
// and summarized in a workbook, as configured.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"claimtool/internal/cli"
	"claimtool/internal/config"
	"claimtool/internal/dqr"
	"claimtool/internal/export"
	"claimtool/internal/flatfile"
	"claimtool/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "dqr4800",
		Short:        "Build DQR tables from a 4800 file",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, run, stop, err := cli.Start(cmd, "dqr4800")
			if err != nil {
				return err
			}
			defer stop()

			cfg := run.Config
			cli.StringOverride(cmd, "in", &cfg.DQR.In)
			cli.StringOverride(cmd, "phy", &cfg.DQR.Phy)
			cli.StringOverride(cmd, "parquet-dir", &cfg.DQR.ParquetDir)
			cli.StringOverride(cmd, "xlsx", &cfg.DQR.XLSX)
			if cmd.Flags().Changed("load") {
				cfg.DQR.Load, _ = cmd.Flags().GetBool("load")
			}

			err = runDQR(ctx, cfg, run.ID)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("dqr4800 failed")
			}
			return err
		},
	}
	cli.AddConfigFlag(root)
	root.Flags().String("in", "", "4800 input file")
	root.Flags().String("phy", "", "physician reference file")
	root.Flags().String("parquet-dir", "", "write Parquet tables to this directory")
	root.Flags().String("xlsx", "", "write the DQR summary workbook to this path")
	root.Flags().Bool("load", false, "load the tables into Postgres")

	root.AddCommand(initCmd())
	return root
}

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the DQR tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, run, stop, err := cli.Start(cmd, "dqr4800")
			if err != nil {
				return err
			}
			defer stop()

			cfg := run.Config
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("database_url is required")
			}
			pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.InitSchema(ctx, pool); err != nil {
				return err
			}
			zerolog.Ctx(ctx).Info().Msg("schema ready")
			return nil
		},
	}
}

// refFiles maps each summarized 4800 column to its reference file.
func refFiles(r config.RefFiles) map[string]string {
	return map[string]string{
		"ADMSRC":   r.AdmSrc,
		"ADMTYPE":  r.AdmType,
		"STATUS":   r.Status,
		"PAYCODE1": r.Payer,
		"RACE":     r.Race,
	}
}

func runDQR(ctx context.Context, cfg *config.Config, runID uuid.UUID) error {
	dc := cfg.DQR
	if err := dc.Validate(cfg.DatabaseURL); err != nil {
		return err
	}
	log := zerolog.Ctx(ctx)
	start := time.Now()

	encs, err := flatfile.ReadEncounters(dc.In, flatfile.Options{})
	if err != nil {
		return err
	}
	log.Info().Str("file", dc.In).Int("records", len(encs)).Msg("4800 read")

	refs, err := dqr.LoadRefs(dc.RefDir, refFiles(dc.Refs))
	if err != nil {
		return err
	}
	var phys []dqr.Physician
	if dc.Phy != "" {
		if phys, err = dqr.LoadPhysicians(dc.Phy); err != nil {
			return err
		}
		log.Info().Str("file", dc.Phy).Int("physicians", len(phys)).Msg("physicians read")
	}

	ds, err := dqr.Build(ctx, encs, dqr.Inputs{Facility: cfg.FacilityName, Refs: refs, Physicians: phys})
	if err != nil {
		return err
	}

	if dc.ParquetDir != "" {
		if _, err := export.WriteDataset(ctx, dc.ParquetDir, ds, cfg.BatchSize); err != nil {
			return err
		}
	}
	if dc.XLSX != "" {
		if err := export.WriteDQRWorkbook(dc.XLSX, ds); err != nil {
			return err
		}
		log.Info().Str("file", dc.XLSX).Msg("dqr workbook written")
	}
	if dc.Load {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return err
		}
		defer pool.Close()

		sum, err := store.Load(ctx, pool, ds, store.Source{Path: dc.In, Facility: cfg.FacilityName}, runID)
		if err != nil {
			return err
		}
		sum.Log(*log)
	}

	log.Info().Int("encounters", ds.Encounters).Dur("elapsed", time.Since(start)).Msg("dqr complete")
	return nil
}
