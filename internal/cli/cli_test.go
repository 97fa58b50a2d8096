package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hello-nrfcloud/backend-sub002/internal/config"
)

// isolate points the config at an empty temp dir and clears overrides.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.ConfigEnvVar, filepath.Join(dir, "config.yaml"))
	t.Setenv("HISTORICAL_DATA_TABLE_INFO", "")
	t.Setenv("CACHE_TABLE_NAME", "")
	t.Setenv("CELL_GEO_LOCAL_DB", filepath.Join(dir, "cellgeo.duckdb"))
	return dir
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDistance(t *testing.T) {
	out, err := run(t, "", "distance", "63.422214376965165,10.43763831347703", "59.92117247790821,10.688614657210739")
	require.NoError(t, err)
	assert.Equal(t, "389.52247455218924\n", out)
}

func TestDistance_InvalidCoordinate(t *testing.T) {
	tests := []struct {
		name string
		arg  string
		want string
	}{
		{name: "no separator", arg: "63.4", want: "must be <lat>,<lng>"},
		{name: "not a number", arg: "north,10", want: "not a number"},
		{name: "missing longitude", arg: "63.4,", want: "longitude is missing"},
		{name: "latitude out of range", arg: "91,10", want: "out of range"},
		{name: "longitude out of range", arg: "10,-181", want: "out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", "distance", tt.arg, "0,0")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseCoordinate(t *testing.T) {
	c, err := parseCoordinate(" 63.42 , 10.43 ")
	require.NoError(t, err)
	assert.InDelta(t, 63.42, c.Lat, 1e-12)
	assert.InDelta(t, 10.43, c.Lng, 1e-12)
}

func TestTimeSpans_CSV(t *testing.T) {
	out, err := run(t, "", "timespans", "--format", "csv")
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"TYPE,BIN,DURATION,EXPIRES",
		"lastHour,1minute,1hour,1minute",
		"lastDay,5minutes,24hours,5minutes",
		"lastWeek,1hour,7days,5minutes",
		"lastMonth,1hour,30days,15minutes",
	}, "\n")+"\n", out)
}

func TestTimeSpans_JSON(t *testing.T) {
	out, err := run(t, "", "timespans", "-o", "json")
	require.NoError(t, err)

	var rows []timeSpanRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, "lastWeek", string(rows[2].Type))
	assert.Equal(t, "5minutes", rows[2].Expires)
}

func TestTimeSpans_InvalidFormat(t *testing.T) {
	_, err := run(t, "", "timespans", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: []string{"1.0.0", "1.0.0"}, want: "0"},
		{args: []string{"1", "1.0.0"}, want: "-1"},
		{args: []string{"2.0.0", "1.9.9"}, want: "1"},
		{args: []string{"--lenient", "1", "1.0.0"}, want: "0"},
		{args: []string{"--lenient", "v1.2.3", "1.2.4"}, want: "-1"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out, err := run(t, "", append([]string{"version", "compare"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", out)
		})
	}
}

func TestVersionSort(t *testing.T) {
	out, err := run(t, "", "version", "sort", "2.0.0", "1.10.0", "1.2.0", "1", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1\n1.0.0\n1.2.0\n1.10.0\n2.0.0\n", out)
}

func TestCell_ID(t *testing.T) {
	out, err := run(t, "", "cell", "id", "--mccmnc", "24201", "--area", "30401", "--cell", "21679616")
	require.NoError(t, err)
	assert.Equal(t, "24201-30401-21679616\n", out)
}

func TestCell_LocalRoundTrip(t *testing.T) {
	isolate(t)
	cellArgs := []string{"--mccmnc", "24201", "--area", "30401", "--cell", "21679616"}

	_, err := run(t, "", "cell", "get", cellArgs[0], cellArgs[1], cellArgs[2], cellArgs[3], cellArgs[4], cellArgs[5])
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not cached")

	_, err = run(t, "", append([]string{"cell", "put", "--lat", "63.42", "--lng", "10.43", "--accuracy", "500"}, cellArgs...)...)
	require.NoError(t, err)

	out, err := run(t, "", append([]string{"cell", "get", "-o", "csv"}, cellArgs...)...)
	require.NoError(t, err)
	assert.Equal(t, "CELL,LAT,LNG,ACCURACY\n24201-30401-21679616,63.42,10.43,500\n", out)
}

func TestCell_ListDelete(t *testing.T) {
	isolate(t)
	input := `[
		{"mccmnc": 24201, "area": 30401, "cell": 1, "lat": 63.1, "lng": 10.1, "accuracy": 100},
		{"mccmnc": 24201, "area": 30401, "cell": 2, "lat": 63.2, "lng": 10.2, "accuracy": 200}
	]`
	_, err := run(t, input, "cell", "import", "-")
	require.NoError(t, err)

	out, err := run(t, "", "cell", "list", "-o", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "CELL,LAT,LNG,ACCURACY,EXPIRES", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "24201-30401-1,63.1,10.1,100,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "24201-30401-2,63.2,10.2,200,"), lines[2])

	_, err = run(t, "", "cell", "delete", "--mccmnc", "24201", "--area", "30401", "--cell", "1")
	require.NoError(t, err)

	_, err = run(t, "", "cell", "get", "--mccmnc", "24201", "--area", "30401", "--cell", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not cached")

	out, err = run(t, "", "cell", "list", "-o", "csv")
	require.NoError(t, err)
	assert.NotContains(t, out, "24201-30401-1,")
	assert.Contains(t, out, "24201-30401-2,")
}

func TestCell_ListNeedsLocalStore(t *testing.T) {
	isolate(t)
	t.Setenv("CACHE_TABLE_NAME", "cellGeoCache")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AWS_PROFILE", "")

	_, err := run(t, "", "cell", "list")
	require.ErrorIs(t, err, errListUnsupported)
}

func TestCell_PutRejectsBadNumbers(t *testing.T) {
	isolate(t)
	_, err := run(t, "", "cell", "put", "--mccmnc", "1", "--area", "2", "--cell", "3",
		"--lat", "north", "--lng", "10", "--accuracy", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latitude")
}

func TestCell_Import(t *testing.T) {
	dir := isolate(t)
	input := `[
		{"mccmnc": 24201, "area": 30401, "cell": 1, "lat": 63.1, "lng": 10.1, "accuracy": 100},
		{"mccmnc": 24201, "area": 30401, "cell": 2, "lat": 63.2, "lng": 10.2, "accuracy": 200}
	]`

	out, err := run(t, input, "cell", "import", "-")
	require.NoError(t, err)
	assert.Equal(t, "stored 2 cells\n", out)

	file := filepath.Join(dir, "cells.json")
	require.NoError(t, os.WriteFile(file, []byte(`[{"mccmnc":1,"area":2,"cell":3,"lat":1,"lng":2,"accuracy":3}]`), 0600))
	out, err = run(t, "", "cell", "import", file)
	require.NoError(t, err)
	assert.Equal(t, "stored 1 cells\n", out)

	out, err = run(t, "", "cell", "get", "-o", "csv", "--mccmnc", "24201", "--area", "30401", "--cell", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "24201-30401-2,63.2,10.2,200")
}

func TestCell_ImportInvalidJSON(t *testing.T) {
	isolate(t)
	_, err := run(t, "{", "cell", "import", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse")
}

func TestVersion_JSON(t *testing.T) {
	out, err := run(t, "", "version", "-o", "json")
	require.NoError(t, err)

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "dev", info["version"])
	assert.NotEmpty(t, info["goVersion"])
}
