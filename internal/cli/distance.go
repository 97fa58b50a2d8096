package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hello-nrfcloud/backend-sub002/internal/convert"
	"github.com/hello-nrfcloud/backend-sub002/internal/geo"
)

func newDistanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "distance <lat,lng> <lat,lng>",
		Short: "Print the great-circle distance between two coordinates in km",
		Example: `  helloctl distance 63.422214376965165,10.43763831347703 59.92117247790821,10.688614657210739
  389.52247455218924`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseCoordinate(args[0])
			if err != nil {
				return err
			}
			b, err := parseCoordinate(args[1])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), geo.DistanceKm(a, b))
			return nil
		},
	}
}

func parseCoordinate(s string) (geo.Coordinate, error) {
	latText, lngText, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Coordinate{}, fmt.Errorf("coordinate %q must be <lat>,<lng>", s)
	}
	lat, err := parseNumber("latitude", latText, -90, 90)
	if err != nil {
		return geo.Coordinate{}, err
	}
	lng, err := parseNumber("longitude", lngText, -180, 180)
	if err != nil {
		return geo.Coordinate{}, err
	}
	return geo.Coordinate{Lat: lat, Lng: lng}, nil
}

func parseNumber(name, s string, lo, hi float64) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, fmt.Errorf("%s is missing", name)
	}
	n := convert.EnsureNumber(s, math.NaN())
	if math.IsNaN(n) {
		return 0, fmt.Errorf("%s %q is not a number", name, s)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s %g is out of range [%g, %g]", name, n, lo, hi)
	}
	return n, nil
}
