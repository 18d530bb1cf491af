package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/davidvella/levelq/internal/sim"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Mode      string
	LookAhead int
	Requests  int
	Seed      uint64
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a synthetic sweep",
		Long: `Run a synthetic sweep through a levelized priority queue and report
its statistics.

Flags override the matching fields of the config.

Example:
  lpqsim run
  lpqsim run --config sweep.yaml --mode external --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Mode, "mode", "", "priority queue backend (internal|external)")
	cmd.Flags().IntVar(&opts.LookAhead, "look-ahead", 0, "number of level buckets")
	cmd.Flags().IntVar(&opts.Requests, "requests", 0, "number of requests to push")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed")

	return cmd
}

func runSweep(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Mode = opts.Mode
	}
	if flags.Changed("look-ahead") {
		cfg.LookAhead = opts.LookAhead
	}
	if flags.Changed("requests") {
		cfg.Requests = opts.Requests
	}
	if flags.Changed("seed") {
		cfg.Seed = opts.Seed
	}

	out := opts.formatter(cmd)
	out.VerboseLog("sweeping %d levels with look-ahead %d (%s)", cfg.Levels, cfg.LookAhead, cfg.Mode)

	rep, err := sim.Run(cmd.Context(), cfg, opts.logger(cmd))
	switch {
	case errors.Is(err, sim.ErrInvalidConfig):
		_ = out.Error("E001", err.Error())
		return WrapExitError(ExitCommandError, "invalid config", err)
	case err != nil:
		_ = out.Error("E002", err.Error())
		return WrapExitError(ExitFailure, "sweep failed", err)
	}

	return out.Success(rep)
}
