// Package cli holds the start-up shared by the claimtool commands: the
// --config flag, logger setup and the per-run context.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"claimtool/internal/config"
	"claimtool/internal/logging"
)

// Run is one tool invocation.
type Run struct {
	Tool   string
	ID     uuid.UUID
	Config *config.Config
}

// AddConfigFlag registers the persistent --config flag on root.
func AddConfigFlag(root *cobra.Command) {
	root.PersistentFlags().StringP("config", "c", "", "run file (YAML)")
}

// Start loads the run file named by --config, sets up logging and returns
// a context carrying a logger tagged with the tool name and run ID. The
// context is cancelled on SIGINT or SIGTERM; call stop when done.
func Start(cmd *cobra.Command, tool string) (ctx context.Context, run *Run, stop func(), err error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}

	logging.Init(tool, cfg.IsDev())
	if err := logging.SetLevel(cfg.LogLevel); err != nil {
		return nil, nil, nil, err
	}

	run = &Run{Tool: tool, ID: uuid.New(), Config: cfg}
	logger := log.Logger.With().Str("run_id", run.ID.String()).Logger()

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	ctx, stop = signal.NotifyContext(base, os.Interrupt, syscall.SIGTERM)
	ctx = logger.WithContext(ctx)

	logger.Info().Str("config", path).Str("env", cfg.Env).Msg("run started")
	return ctx, run, stop, nil
}

// StringOverride replaces *dst with the named flag when it was set on the
// command line.
func StringOverride(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}
