package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "jumble.dev/pkg/jumble/internal/model"
)

// TableUI renders results as aligned tables.
type TableUI struct {
	cmd *cobra.Command
	tty bool
}

// NewTableUI creates a new TableUI.
func NewTableUI(cmd *cobra.Command, tty bool) *TableUI {
	return &TableUI{cmd: cmd, tty: tty}
}

// DisplayClasses prints a Class / Package table.
func (t *TableUI) DisplayClasses(ctx context.Context, classes m.ClassNameSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rows := make([][]string, 0, classes.Len())
	for _, name := range classes.Sorted() {
		rows = append(rows, []string{name.SimpleName(), displayPackage(name)})
	}

	t.printf("%s\n%s", header(t.tty, "Classes"), renderTable(
		[]string{"Class", "Package"},
		rows,
		[]string{fmt.Sprintf("Total %d", len(rows)), ""},
	))

	return nil
}

// DisplayDerived prints a Class / Verdict table.
func (t *TableUI) DisplayDerived(ctx context.Context, ancestor m.ClassName, results []m.AncestryResult, showUndetermined bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	derived, undetermined := partition(results)

	rows := make([][]string, 0, len(derived)+len(undetermined))
	for _, r := range derived {
		rows = append(rows, []string{string(r.Class), r.Verdict.String(), ""})
	}

	if showUndetermined {
		for _, r := range undetermined {
			rows = append(rows, []string{string(r.Class), r.Verdict.String(), errString(r.Err)})
		}
	}

	t.printf("%s\n%s", header(t.tty, "Derived from "+string(ancestor)), renderTable(
		[]string{"Class", "Verdict", "Reason"},
		rows,
		[]string{fmt.Sprintf("Derived %d", len(derived)), fmt.Sprintf("Undetermined %d", len(undetermined)), ""},
	))

	return nil
}

func (t *TableUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(t.cmd.OutOrStdout(), format, args...)
}

func renderTable(headers []string, rows [][]string, footer []string) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.AppendBulk(rows)
	table.SetFooter(footer)
	table.Render()

	return buf.String()
}

func displayPackage(name m.ClassName) string {
	if pkg := name.Package(); pkg != "" {
		return pkg
	}

	return "(default)"
}
