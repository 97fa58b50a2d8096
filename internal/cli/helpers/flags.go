package helpers

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

// AddFormatFlag adds a standard --format/-o flag to a command.
func AddFormatFlag(cmd *cobra.Command, formatVar *string, defaultFormat OutputFormat) {
	names := formatNames(AllFormats)
	description := fmt.Sprintf("Output format (%s)", strings.Join(names, ", "))
	cmd.Flags().StringVarP(formatVar, "format", "o", string(defaultFormat), description)

	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) (OutputFormat, error) {
	if slices.Contains(AllFormats, OutputFormat(format)) {
		return OutputFormat(format), nil
	}
	return "", fmt.Errorf("unsupported format %q, must be one of: %s",
		format, strings.Join(formatNames(AllFormats), ", "))
}

// Print validates format and writes t to the command output.
func Print(cmd *cobra.Command, format string, t Table) error {
	f, err := ValidateFormat(format)
	if err != nil {
		return err
	}
	formatter, err := NewFormatter(f)
	if err != nil {
		return err
	}
	return formatter.Format(t, cmd.OutOrStdout())
}

func formatNames(formats []OutputFormat) []string {
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return names
}
