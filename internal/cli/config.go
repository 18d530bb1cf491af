package cli

import (
	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective sweep config",
		Long: `Print the sweep config that run would use: the defaults, overlaid with
the file given by --config.

The text output is valid YAML and can be edited and passed back with --config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}

			out := rootOpts.formatter(cmd)
			if out.Format == "json" {
				return out.Success(cfg)
			}

			data, err := cfg.Marshal()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to encode config", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
