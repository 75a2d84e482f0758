// Command facility_reports builds rolling-year HAI tables from the quarterly
// supplemental file and writes one workbook per facility.
package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"claimtool/internal/cli"
	"claimtool/internal/config"
	"claimtool/internal/hai"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "facility_reports",
		Short:        "Write per-facility HAI workbooks",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, run, stop, err := cli.Start(cmd, "facility_reports")
			if err != nil {
				return err
			}
			defer stop()

			hc := run.Config.HAI
			cli.StringOverride(cmd, "in", &hc.In)
			cli.StringOverride(cmd, "sheet", &hc.Sheet)
			cli.StringOverride(cmd, "hospitals", &hc.Hospitals)
			cli.StringOverride(cmd, "benchmarks", &hc.Benchmarks)
			cli.StringOverride(cmd, "descriptions", &hc.Descriptions)
			cli.StringOverride(cmd, "out-dir", &hc.OutDir)
			cli.StringOverride(cmd, "metrics", &hc.Metrics)
			cli.StringOverride(cmd, "top-benchmarks", &hc.TopBenchmarks)
			cli.StringOverride(cmd, "current-quarter", &hc.Current.Main)

			_, err = runReports(ctx, hc)
			if err != nil {
				zerolog.Ctx(ctx).Error().Err(err).Msg("facility_reports failed")
			}
			return err
		},
	}
	cli.AddConfigFlag(cmd)
	cmd.Flags().String("in", "", "HAI supplemental workbook")
	cmd.Flags().String("sheet", "", "sheet of the supplemental workbook")
	cmd.Flags().String("hospitals", "", "hospital reference workbook")
	cmd.Flags().String("benchmarks", "", "expected SIR workbook")
	cmd.Flags().String("descriptions", "", "metric description workbook")
	cmd.Flags().String("out-dir", "", "directory for the facility workbooks")
	cmd.Flags().String("metrics", "", "clinical metrics workbook (fac and facqtr sheets)")
	cmd.Flags().String("top-benchmarks", "", "100 Top benchmark workbook")
	cmd.Flags().String("current-quarter", "", "quarter of the current-quarter table, e.g. \"2023 Q2\"")
	return cmd
}

// loadRefs reads whichever reference workbooks are configured.
func loadRefs(hc config.HAIConfig) (hai.Refs, error) {
	var refs hai.Refs
	var err error
	if hc.Hospitals != "" {
		if refs.Hospitals, err = hai.LoadHospitals(hc.Hospitals, ""); err != nil {
			return refs, err
		}
	}
	if hc.Benchmarks != "" {
		if refs.Benchmarks, err = hai.LoadBenchmarks(hc.Benchmarks, ""); err != nil {
			return refs, err
		}
	}
	if hc.Descriptions != "" {
		if refs.Descriptions, err = hai.LoadDescriptions(hc.Descriptions, ""); err != nil {
			return refs, err
		}
	}
	return refs, nil
}

// loadDashboard builds the dashboard tables when a metrics workbook is
// configured and returns nil otherwise.
func loadDashboard(ctx context.Context, hc config.HAIConfig, descs map[string]string) (*hai.Dashboard, error) {
	if hc.Metrics == "" {
		return nil, nil
	}
	log := zerolog.Ctx(ctx)

	in := hai.DashboardInput{
		Descriptions: descs,
		Current:      hai.CurrentQuarters{Main: hc.Current.Main, SAF: hc.Current.SAF, MSPB: hc.Current.MSPB},
	}
	for _, s := range []struct {
		sheet string
		dst   *[]hai.Metric
	}{
		{hc.FacSheet, &in.Fac},
		{hc.FacqtrSheet, &in.Facqtr},
	} {
		rows, err := hai.LoadMetrics(hc.Metrics, s.sheet)
		if err != nil {
			return nil, err
		}
		prepared, st := hai.PrepareMetrics(rows, hc.Comparison)
		log.Info().Str("file", hc.Metrics).Str("sheet", s.sheet).
			Int("read", st.Read).Int("hai_removed", st.HAI).Int("other_benchmark", st.OtherBenchmark).
			Int("codes_renamed", st.Renamed).Int("descriptions_renamed", st.DescriptionsSet).
			Int("kept", len(prepared)).Msg("metrics read")
		*s.dst = prepared
	}
	if hc.TopBenchmarks != "" {
		top, err := hai.LoadTopBenchmarks(hc.TopBenchmarks, "")
		if err != nil {
			return nil, err
		}
		in.TopBenchmarks = top
	}
	return hai.BuildDashboard(ctx, in), nil
}

func runReports(ctx context.Context, hc config.HAIConfig) ([]string, error) {
	if err := hc.Validate(); err != nil {
		return nil, err
	}
	log := zerolog.Ctx(ctx)

	measures, err := hai.LoadMeasures(hc.In, hc.Sheet)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", hc.In).Int("measures", len(measures)).Msg("HAI measures read")

	refs, err := loadRefs(hc)
	if err != nil {
		return nil, err
	}
	res, err := hai.Build(ctx, hai.Input{
		Measures:     measures,
		RollingYears: hc.RollingYears,
		Refs:         refs,
		MinMetrics:   hc.MinMetrics,
	})
	if err != nil {
		return nil, err
	}

	dash, err := loadDashboard(ctx, hc, refs.Descriptions)
	if err != nil {
		return nil, err
	}

	facilities := hai.Facilities(res.Rows, dash, refs.Hospitals)
	paths, err := hai.WriteFacilityWorkbooks(ctx, hc.OutDir, hc.Suffix, facilities)
	if err != nil {
		return nil, err
	}
	log.Info().Int("facilities", len(paths)).Str("dir", hc.OutDir).Msg("facility reports written")
	return paths, nil
}
