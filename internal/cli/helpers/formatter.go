package helpers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// OutputFormat represents the desired output format.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatCSV   OutputFormat = "csv"
)

// AllFormats lists every supported output format.
var AllFormats = []OutputFormat{FormatTable, FormatJSON, FormatCSV}

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	// ErrorStyle renders error lines on the terminal.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	// HintStyle renders secondary information.
	HintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Table is tabular command output. Source is what the JSON format encodes.
type Table struct {
	Headers []string
	Rows    [][]string
	Source  any
}

// Formatter writes a Table.
type Formatter interface {
	Format(t Table, w io.Writer) error
}

// NewFormatter creates a Formatter for format.
func NewFormatter(format OutputFormat) (Formatter, error) {
	switch format {
	case FormatTable:
		return TableFormatter{}, nil
	case FormatJSON:
		return JSONFormatter{}, nil
	case FormatCSV:
		return CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// JSONFormatter writes the table source as indented JSON.
type JSONFormatter struct{}

func (JSONFormatter) Format(t Table, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.Source)
}

// TableFormatter draws a bordered table.
type TableFormatter struct{}

func (TableFormatter) Format(t Table, w io.Writer) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, HintStyle.Render("no results"))
		return err
	}
	out := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(t.Headers...).
		Rows(t.Rows...)
	_, err := fmt.Fprintln(w, out.Render())
	return err
}

// CSVFormatter writes a header line followed by the rows.
type CSVFormatter struct{}

func (CSVFormatter) Format(t Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
