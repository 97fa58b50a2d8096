// Package query implements the helloctl commands reading historical device
// data from Timestream.
package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/timestreamquery"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hello-nrfcloud/backend-sub002/internal/cli/helpers"
	"github.com/hello-nrfcloud/backend-sub002/internal/config"
	"github.com/hello-nrfcloud/backend-sub002/internal/history"
	"github.com/hello-nrfcloud/backend-sub002/internal/timestream"
)

// NewQueryCmd creates the query command group.
func NewQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query historical device data",
		Long: `Query historical device data the same way the web application does.

Attributes are given as name=fn:measure for aggregated sensor data
(e.g. --attr avgTemp=avg:temperature) or name=measure for raw location
measures (e.g. --attr lat=lat).`,
	}
	cmd.AddCommand(newSensorCmd())
	cmd.AddCommand(newLocationCmd())
	return cmd
}

// requestFlags are the flags shared by all query commands.
type requestFlags struct {
	deviceID      string
	model         string
	span          history.TimeSpan
	attrs         []string
	id            string
	statementOnly bool
	format        string
}

func (f *requestFlags) add(cmd *cobra.Command) {
	f.span = history.LastHour
	f.addFlags(cmd.Flags())
	helpers.AddFormatFlag(cmd, &f.format, helpers.FormatTable)
	_ = cmd.MarkFlagRequired("device")
	_ = cmd.MarkFlagRequired("model")
}

func (f *requestFlags) addFlags(flags *pflag.FlagSet) {
	flags.StringVar(&f.deviceID, "device", "", "Device ID")
	flags.StringVar(&f.model, "model", "", "Device model (e.g. PCA20035+solar)")
	flags.Var((*timeSpanValue)(&f.span), "type", "Time span ("+strings.Join(spanNames(), ", ")+")")
	flags.StringArrayVar(&f.attrs, "attr", nil, "Attribute as name=fn:measure or name=measure (repeatable)")
	flags.StringVar(&f.id, "id", "", "Request ID (generated when empty)")
	flags.BoolVar(&f.statementOnly, "statement-only", false, "Print the Timestream statement without running it")
}

// timeSpanValue is a pflag.Value accepting only known time spans.
type timeSpanValue history.TimeSpan

var _ pflag.Value = (*timeSpanValue)(nil)

func (v *timeSpanValue) String() string { return string(*v) }

func (v *timeSpanValue) Set(s string) error {
	if _, err := history.Resolve(s); err != nil {
		return err
	}
	*v = timeSpanValue(s)
	return nil
}

func (*timeSpanValue) Type() string { return "timespan" }

func spanNames() []string {
	spans := history.TimeSpans()
	names := make([]string, len(spans))
	for i, s := range spans {
		names[i] = string(s)
	}
	return names
}

func (f *requestFlags) request(message string, defaults history.Attributes) (history.Request, error) {
	attrs, err := ParseAttributes(f.attrs)
	if err != nil {
		return history.Request{}, err
	}
	if len(attrs) == 0 {
		attrs = defaults
	}
	id := f.id
	if id == "" {
		id = uuid.NewString()
	}
	req := history.Request{
		ID:         id,
		Message:    message,
		Type:       f.span,
		Attributes: attrs,
	}
	if err := history.Validate(req); err != nil {
		return history.Request{}, err
	}
	return req, nil
}

// ParseAttributes parses name=fn:measure and name=measure specs in order.
// A name may only be given once.
func ParseAttributes(specs []string) (history.Attributes, error) {
	out := make(history.Attributes, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		name, source, ok := strings.Cut(spec, "=")
		name = strings.TrimSpace(name)
		source = strings.TrimSpace(source)
		if !ok || name == "" || source == "" {
			return nil, fmt.Errorf("attribute %q must be name=fn:measure or name=measure", spec)
		}
		if seen[name] {
			return nil, fmt.Errorf("attribute %s given more than once", name)
		}
		seen[name] = true

		var attr history.Attribute = history.Raw{Source: source}
		if fn, measure, isAgg := strings.Cut(source, ":"); isAgg {
			if fn == "" || measure == "" {
				return nil, fmt.Errorf("attribute %q must be name=fn:measure", spec)
			}
			attr = history.Aggregate{Func: history.AggregateFunc(fn), Source: measure}
		}
		out = append(out, history.NamedAttribute{Name: name, Attribute: attr})
	}
	return out, nil
}

// session is everything a query command needs once configuration is loaded.
type session struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func openSession(cmd *cobra.Command, requestID string) (*session, error) {
	cfg, err := helpers.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireHistoricalTable(); err != nil {
		return nil, err
	}
	logger := helpers.Logger(cfg, "query").With().Str("request_id", requestID).Logger()
	return &session{cfg: cfg, logger: logger}, nil
}

func (s *session) repository(cmd *cobra.Command) (*history.Repository, error) {
	awsCfg, err := helpers.LoadAWSConfig(cmd.Context(), s.cfg.AWS)
	if err != nil {
		return nil, err
	}
	client := timestream.NewClient(timestreamquery.NewFromConfig(awsCfg), s.cfg.Retry, s.logger)
	return history.NewRepository(client, s.cfg.HistoricalData.Table, s.logger), nil
}

// ResponseTable renders resp with the time first and the attributes of req
// in request order. Sensor series are merged into one row per time.
func ResponseTable(req history.Request, resp history.Response) helpers.Table {
	headers := make([]string, 0, len(req.Attributes)+1)
	headers = append(headers, "TIME")
	for _, a := range req.Attributes {
		headers = append(headers, a.Name)
	}

	var rows [][]string
	if resp.Series == nil {
		rows = make([][]string, 0, len(resp.Rows))
		for _, row := range resp.Rows {
			cells := make([]string, 0, len(headers))
			cells = append(cells, formatTS(row["ts"]))
			for _, a := range req.Attributes {
				cells = append(cells, formatValue(row[a.Name]))
			}
			rows = append(rows, cells)
		}
	} else {
		rows = mergeSeries(req.Attributes, resp.Series)
	}
	return helpers.Table{Headers: headers, Rows: rows, Source: resp}
}

func mergeSeries(attrs history.Attributes, series []history.Series) [][]string {
	sources := make(map[string]string, len(attrs))
	for _, a := range attrs {
		sources[a.Name] = a.Source()
	}

	var rows [][]string
	byTS := make(map[string]int)
	for col, s := range series {
		for _, row := range s.Rows {
			ts := formatTS(row["ts"])
			i, ok := byTS[ts]
			if !ok {
				i = len(rows)
				byTS[ts] = i
				cells := make([]string, len(series)+1)
				cells[0] = ts
				rows = append(rows, cells)
			}
			rows[i][col+1] = formatValue(row[sources[s.Name]])
		}
	}
	return rows
}

func formatTS(v any) string {
	if ms, ok := v.(int64); ok {
		return time.UnixMilli(ms).UTC().Format(time.RFC3339)
	}
	return formatValue(v)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
