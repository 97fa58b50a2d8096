package query

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hello-nrfcloud/backend-sub002/internal/cli/helpers"
	"github.com/hello-nrfcloud/backend-sub002/internal/history"
)

func newSensorCmd() *cobra.Command {
	var flags requestFlags

	cmd := &cobra.Command{
		Use:   "sensor <message>",
		Short: "Query binned aggregates of a sensor message",
		Example: `  helloctl query sensor battery --device oob-352656108602296 --model PCA20035+solar \
    --type lastDay --attr min=min:% --attr max=max:%`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request(args[0], nil)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, req.ID)
			if err != nil {
				return err
			}

			if flags.statementOnly {
				statement, err := history.SensorQuery{
					Span:       req.Type,
					Attributes: req.Attributes,
					Table:      s.cfg.HistoricalData.Table,
					DeviceID:   flags.deviceID,
					Context:    history.ContextFor(flags.model, req.Message),
					Now:        time.Now(),
				}.Statement()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), statement)
				return nil
			}

			repo, err := s.repository(cmd)
			if err != nil {
				return err
			}
			resp, err := repo.Get(cmd.Context(), flags.deviceID, flags.model, req)
			if err != nil {
				return err
			}
			s.logger.Debug().Int("series", len(resp.Series)).Msg("sensor query done")
			return helpers.Print(cmd, flags.format, ResponseTable(req, resp))
		},
	}
	flags.add(cmd)
	return cmd
}
