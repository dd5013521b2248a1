package controller

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	m "jumble.dev/pkg/jumble/internal/model"
)

// SimpleUI prints one class name per line using cobra's output. Headers are
// only printed on a terminal so the output stays pipeable.
type SimpleUI struct {
	cmd *cobra.Command
	tty bool
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command, tty bool) *SimpleUI {
	return &SimpleUI{cmd: cmd, tty: tty}
}

// DisplayClasses prints the sorted class names.
func (s *SimpleUI) DisplayClasses(ctx context.Context, classes m.ClassNameSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.tty {
		s.printf("%s\n", header(true, fmt.Sprintf("%d class(es)", classes.Len())))
	}

	for _, name := range classes.Sorted() {
		s.printf("%s\n", name)
	}

	return nil
}

// DisplayDerived prints the derived classes, then the undetermined ones if requested.
func (s *SimpleUI) DisplayDerived(ctx context.Context, ancestor m.ClassName, results []m.AncestryResult, showUndetermined bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	derived, undetermined := partition(results)

	if s.tty {
		s.printf("%s\n", header(true, fmt.Sprintf("%d class(es) derived from %s", len(derived), ancestor)))
	}

	for _, r := range derived {
		s.printf("%s\n", r.Class)
	}

	if !showUndetermined || len(undetermined) == 0 {
		return nil
	}

	s.printf("%s\n", header(s.tty, fmt.Sprintf("# %d undetermined", len(undetermined))))

	for _, r := range undetermined {
		s.printf("# %s: %s\n", r.Class, errString(r.Err))
	}

	return nil
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
