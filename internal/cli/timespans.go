package cli

import (
	"github.com/spf13/cobra"

	"github.com/hello-nrfcloud/backend-sub002/internal/cli/helpers"
	"github.com/hello-nrfcloud/backend-sub002/internal/history"
)

type timeSpanRow struct {
	Type     history.TimeSpan `json:"type"`
	Bin      string           `json:"bin"`
	Duration string           `json:"duration"`
	Expires  string           `json:"expires"`
}

func newTimeSpansCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "timespans",
		Short: "List the supported historical data time spans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out helpers.Table
			out.Headers = []string{"TYPE", "BIN", "DURATION", "EXPIRES"}
			var rows []timeSpanRow
			for _, span := range history.TimeSpans() {
				entry, err := history.Resolve(string(span))
				if err != nil {
					return err
				}
				r := timeSpanRow{Type: span, Bin: entry.Bin, Duration: entry.Duration, Expires: entry.Expires}
				rows = append(rows, r)
				out.Rows = append(out.Rows, []string{string(r.Type), r.Bin, r.Duration, r.Expires})
			}
			out.Source = rows
			return helpers.Print(cmd, format, out)
		},
	}
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable)
	return cmd
}
