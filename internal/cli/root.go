package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hello-nrfcloud/backend-sub002/internal/cli/helpers"
	"github.com/hello-nrfcloud/backend-sub002/internal/cli/query"
)

// NewRootCmd creates the helloctl command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "helloctl",
		Short: "Operate the hello.nrfcloud.com backend helpers",
		Long: `Query historical device data from Timestream, inspect the supported
time spans, manage the cell geolocation cache and run the small utilities the
backend relies on.

Configuration is read from ~/.hello-nrfcloud/config.yaml (or $HELLO_CONFIG)
and can be overridden with environment variables such as
HISTORICAL_DATA_TABLE_INFO=<database>|<table>.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String(helpers.ConfigFlag, "", "Config file (default ~/.hello-nrfcloud/config.yaml)")
	cmd.PersistentFlags().String(helpers.LogLevelFlag, "", "Log level (trace, debug, info, warn, error)")

	cmd.AddCommand(query.NewQueryCmd())
	cmd.AddCommand(newTimeSpansCmd())
	cmd.AddCommand(newDistanceCmd())
	cmd.AddCommand(newCellCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command until ctx is cancelled.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
