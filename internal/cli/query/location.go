package query

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hello-nrfcloud/backend-sub002/internal/cli/helpers"
	"github.com/hello-nrfcloud/backend-sub002/internal/convert"
	"github.com/hello-nrfcloud/backend-sub002/internal/geo"
	"github.com/hello-nrfcloud/backend-sub002/internal/history"
)

// DefaultLocationAttributes are requested when no --attr is given.
var DefaultLocationAttributes = history.Attributes{
	{Name: "lat", Attribute: history.Raw{Source: "lat"}},
	{Name: "lng", Attribute: history.Raw{Source: "lng"}},
	{Name: "acc", Attribute: history.Raw{Source: "acc"}},
}

func newLocationCmd() *cobra.Command {
	var (
		flags   requestFlags
		trailKm float64
	)

	cmd := &cobra.Command{
		Use:   "location",
		Short: "Query the raw location history of a device",
		Long: `Query the raw location history of a device.

With --trail the positions are folded into a trail where consecutive
positions closer than the given distance in km become one point.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := flags.request(history.LocationMessage, DefaultLocationAttributes)
			if err != nil {
				return err
			}
			s, err := openSession(cmd, req.ID)
			if err != nil {
				return err
			}

			if flags.statementOnly {
				statement, err := history.LocationQuery{
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
			if trailKm <= 0 {
				return helpers.Print(cmd, flags.format, ResponseTable(req, resp))
			}
			trail := geo.Trail(trailKm, Positions(resp.Rows, req.Message))
			s.logger.Debug().Int("positions", len(resp.Rows)).Int("points", len(trail)).Msg("trail built")
			return helpers.Print(cmd, flags.format, TrailTable(trail))
		},
	}
	flags.add(cmd)
	cmd.Flags().Float64Var(&trailKm, "trail", 0, "Fold positions closer than this many km into one trail point")
	return cmd
}

// Positions turns location rows into positions. Rows without both lat and
// lng are skipped.
func Positions(rows []history.Row, source string) []geo.Position {
	out := make([]geo.Position, 0, len(rows))
	for _, row := range rows {
		lat := convert.EnsureNumber(row["lat"], math.NaN())
		lng := convert.EnsureNumber(row["lng"], math.NaN())
		if math.IsNaN(lat) || math.IsNaN(lng) {
			continue
		}
		ts, _ := row["ts"].(int64)
		out = append(out, geo.Position{
			Coordinate: geo.Coordinate{Lat: lat, Lng: lng},
			TS:         ts,
			Source:     source,
		})
	}
	return out
}

// TrailTable renders trail points.
func TrailTable(trail []geo.TrailPoint) helpers.Table {
	rows := make([][]string, 0, len(trail))
	for _, p := range trail {
		rows = append(rows, []string{
			formatTS(p.TS),
			strconv.FormatFloat(p.Lat, 'f', -1, 64),
			strconv.FormatFloat(p.Lng, 'f', -1, 64),
			strconv.Itoa(p.Count),
			fmt.Sprintf("%.3f", p.RadiusKm),
		})
	}
	return helpers.Table{
		Headers: []string{"TIME", "LAT", "LNG", "COUNT", "RADIUS KM"},
		Rows:    rows,
		Source:  trail,
	}
}
