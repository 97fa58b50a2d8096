package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/hello-nrfcloud/backend-sub002/internal/cli/helpers"
	"github.com/hello-nrfcloud/backend-sub002/internal/versions"
	"github.com/hello-nrfcloud/backend-sub002/pkg/version"
)

func newVersionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			return helpers.Print(cmd, format, helpers.Table{
				Headers: []string{"VERSION", "GIT COMMIT", "BUILD DATE", "GO VERSION"},
				Rows:    [][]string{{info.Version, info.GitCommit, info.BuildDate, info.GoVersion}},
				Source:  info,
			})
		},
	}
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable)
	cmd.AddCommand(newVersionCompareCmd())
	cmd.AddCommand(newVersionSortCmd())
	return cmd
}

func newVersionCompareCmd() *cobra.Command {
	var lenient bool

	cmd := &cobra.Command{
		Use:   "compare <a> <b>",
		Short: "Compare two firmware versions",
		Long: `Print -1, 0 or 1 depending on whether a sorts before, equal to or after b.

The default strict ordering compares every dot separated segment and ranks
"1" before "1.0.0". With --lenient only major.minor.patch are compared.`,
		Args: cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			if lenient {
				fmt.Fprintln(cmd.OutOrStdout(), versions.Parse(args[0]).Compare(versions.Parse(args[1])))
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), versions.Compare(args[0], args[1]))
		},
	}
	cmd.Flags().BoolVar(&lenient, "lenient", false, "Compare major.minor.patch only")
	return cmd
}

func newVersionSortCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sort <version>...",
		Short: "Sort firmware versions in ascending order",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sorted := slices.Clone(args)
			slices.SortFunc(sorted, versions.Compare)
			for _, v := range sorted {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
		},
	}
}
