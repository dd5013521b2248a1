// Package controller provides output adapters for displaying discovery results.
package controller

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	m "jumble.dev/pkg/jumble/internal/model"
)

// Format selects how results are rendered.
type Format string

// Available formats.
const (
	FormatPlain Format = "plain"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatPlain, FormatTable, FormatYAML}

// ParseFormat validates a format name.
func ParseFormat(value string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(value)))
	if f == "" {
		return FormatPlain, nil
	}

	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}

	return "", fmt.Errorf("unknown output format %q (want plain, table or yaml)", value)
}

// UI defines how discovery results are displayed.
type UI interface {
	DisplayClasses(ctx context.Context, classes m.ClassNameSet) error
	DisplayDerived(ctx context.Context, ancestor m.ClassName, results []m.AncestryResult, showUndetermined bool) error
}

// NewUI returns the UI for format writing to cmd's output.
//
//nolint:ireturn // The concrete UI depends on the requested format.
func NewUI(cmd *cobra.Command, format Format, tty bool) UI {
	switch format {
	case FormatTable:
		return NewTableUI(cmd, tty)
	case FormatYAML:
		return NewYAMLUI(cmd)
	case FormatPlain:
		return NewSimpleUI(cmd, tty)
	default:
		return NewSimpleUI(cmd, tty)
	}
}

// IsTTY reports whether f is an interactive terminal.
func IsTTY(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

func header(tty bool, text string) string {
	if !tty {
		return text
	}

	return headerStyle.Render(text)
}

func partition(results []m.AncestryResult) (derived, undetermined []m.AncestryResult) {
	for _, r := range results {
		switch r.Verdict {
		case m.Derived:
			derived = append(derived, r)
		case m.Undetermined:
			undetermined = append(undetermined, r)
		case m.NotDerived:
		}
	}

	return derived, undetermined
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
