package query_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hello-nrfcloud/backend-sub002/internal/cli/helpers"
	"github.com/hello-nrfcloud/backend-sub002/internal/cli/query"
	"github.com/hello-nrfcloud/backend-sub002/internal/config"
	"github.com/hello-nrfcloud/backend-sub002/internal/geo"
	"github.com/hello-nrfcloud/backend-sub002/internal/history"
)

func TestParseAttributes(t *testing.T) {
	attrs, err := query.ParseAttributes([]string{"avgTemp=avg:temperature", " lat = lat ", "n=count:%"})
	require.NoError(t, err)
	assert.Equal(t, history.Attributes{
		{Name: "avgTemp", Attribute: history.Aggregate{Func: history.Avg, Source: "temperature"}},
		{Name: "lat", Attribute: history.Raw{Source: "lat"}},
		{Name: "n", Attribute: history.Aggregate{Func: history.Count, Source: "%"}},
	}, attrs)
}

func TestParseAttributes_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		specs []string
		want  string
	}{
		{name: "no equals", specs: []string{"temperature"}, want: "must be name="},
		{name: "empty name", specs: []string{"=avg:t"}, want: "must be name="},
		{name: "empty measure", specs: []string{"t=avg:"}, want: "name=fn:measure"},
		{name: "duplicate", specs: []string{"t=avg:t", "t=max:t"}, want: "more than once"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := query.ParseAttributes(tt.specs)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResponseTable(t *testing.T) {
	t.Run("sensor series merge by time", func(t *testing.T) {
		req := history.Request{
			Message: "battery",
			Attributes: history.Attributes{
				{Name: "min", Attribute: history.Aggregate{Func: history.Min, Source: "%"}},
				{Name: "max", Attribute: history.Aggregate{Func: history.Max, Source: "%"}},
			},
		}
		resp := history.Response{Series: []history.Series{
			{Name: "min", Rows: []history.Row{{"%": 93.5, "ts": int64(1700000000000)}}},
			{Name: "max", Rows: []history.Row{
				{"%": 94.0, "ts": int64(1700000000000)},
				{"%": 95.25, "ts": int64(1700000060000)},
			}},
		}}
		tbl := query.ResponseTable(req, resp)
		assert.Equal(t, []string{"TIME", "min", "max"}, tbl.Headers)
		assert.Equal(t, [][]string{
			{"2023-11-14T22:13:20Z", "93.5", "94"},
			{"2023-11-14T22:14:20Z", "", "95.25"},
		}, tbl.Rows)
		assert.Equal(t, resp, tbl.Source)
	})

	t.Run("location rows", func(t *testing.T) {
		req := history.Request{Message: "location", Attributes: query.DefaultLocationAttributes}
		resp := history.Response{Rows: []history.Row{
			{"lat": 63.4, "lng": 10.4, "acc": 12.0, "ts": int64(1700000000000)},
		}}
		tbl := query.ResponseTable(req, resp)
		assert.Equal(t, "TIME", tbl.Headers[0])
		require.Len(t, tbl.Rows, 1)
		assert.Equal(t, "2023-11-14T22:13:20Z", tbl.Rows[0][0])
		assert.Len(t, tbl.Rows[0], len(query.DefaultLocationAttributes)+1)
	})
}

func TestPositions(t *testing.T) {
	rows := []history.Row{
		{"ts": int64(2), "lat": 63.42, "lng": 10.43},
		{"ts": int64(1), "lat": "63.40", "lng": 10.40},
		{"ts": int64(3), "lat": 63.5},
		{"ts": int64(4), "lat": nil, "lng": 10.1},
	}
	got := query.Positions(rows, "GNSS")
	assert.Equal(t, []geo.Position{
		{Coordinate: geo.Coordinate{Lat: 63.42, Lng: 10.43}, TS: 2, Source: "GNSS"},
		{Coordinate: geo.Coordinate{Lat: 63.40, Lng: 10.40}, TS: 1, Source: "GNSS"},
	}, got)
}

func TestTrailTable(t *testing.T) {
	tbl := query.TrailTable([]geo.TrailPoint{{
		Coordinate: geo.Coordinate{Lat: 1.5, Lng: 2},
		TS:         1700000000000,
		Count:      3,
		RadiusKm:   0.0494,
		Sources:    []string{"GNSS"},
	}})
	assert.Equal(t, [][]string{{"2023-11-14T22:13:20Z", "1.5", "2", "3", "0.049"}}, tbl.Rows)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "helloctl", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String(helpers.ConfigFlag, "", "")
	root.PersistentFlags().String(helpers.LogLevelFlag, "", "")
	root.AddCommand(query.NewQueryCmd())

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func setTable(t *testing.T, table string) {
	t.Helper()
	t.Setenv(config.ConfigEnvVar, filepath.Join(t.TempDir(), "config.yaml"))
	t.Setenv("HISTORICAL_DATA_TABLE_INFO", table)
}

func TestSensor_StatementOnly(t *testing.T) {
	setTable(t, "historicalData|deviceData")

	out, err := run(t, "query", "sensor", "battery", "--statement-only",
		"--device", "oob-352656108602296", "--model", "PCA20035+solar", "--type", "lastDay",
		"--attr", "min=min:%", "--attr", "max=max:%")
	require.NoError(t, err)

	statement := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(statement,
		`SELECT deviceId, bin(time, 5minute) as time, min(measure_value::double) as "min", max(measure_value::double) as "max"`))
	assert.Contains(t, statement, `FROM "historicalData"."deviceData"`)
	assert.Contains(t, statement, `deviceId = 'oob-352656108602296'`)
	assert.Contains(t, statement, `"@context" = 'https://github.com/hello-nrfcloud/proto/transformed/PCA20035+solar/battery'`)
	assert.Contains(t, statement, `measure_name in ('%')`)
	assert.Contains(t, statement, `ORDER BY bin(time, 5minute) DESC`)
}

func TestLocation_StatementOnlyDefaults(t *testing.T) {
	setTable(t, "historicalData|deviceData")

	out, err := run(t, "query", "location", "--statement-only",
		"--device", "d1", "--model", "PCA20035+solar")
	require.NoError(t, err)
	assert.Contains(t, out, `measure_name in ('lat','lng','acc')`)
	assert.Contains(t, out, `ORDER BY time DESC`)
}

func TestQuery_RejectsInvalidRequests(t *testing.T) {
	setTable(t, "historicalData|deviceData")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "sensor without attributes",
			args: []string{"query", "sensor", "battery", "--device", "d", "--model", "m"},
			want: "does not have any attribute",
		},
		{
			name: "sensor raw attribute",
			args: []string{"query", "sensor", "battery", "--device", "d", "--model", "m", "--attr", "a=%"},
			want: "needs an aggregate",
		},
		{
			name: "aggregated location",
			args: []string{"query", "location", "--device", "d", "--model", "m", "--attr", "lat=avg:lat"},
			want: "must not be aggregated",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append(tt.args, "--statement-only")...)
			require.Error(t, err)
			assert.ErrorIs(t, err, history.ErrInvalidRequest)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestQuery_RejectsUnknownSpan(t *testing.T) {
	setTable(t, "historicalData|deviceData")

	_, err := run(t, "query", "sensor", "battery", "--statement-only",
		"--device", "d", "--model", "m", "--type", "lastYear", "--attr", "a=avg:%")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lastYear is not a valid time span")
}

func TestQuery_RequiresTable(t *testing.T) {
	setTable(t, "")

	_, err := run(t, "query", "sensor", "battery", "--statement-only",
		"--device", "d", "--model", "m", "--attr", "a=avg:%")
	require.ErrorIs(t, err, config.ErrNoHistoricalTable)
}
