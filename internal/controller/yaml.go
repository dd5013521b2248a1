package controller

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	m "jumble.dev/pkg/jumble/internal/model"
)

// YAMLUI writes results as a YAML document.
type YAMLUI struct {
	cmd *cobra.Command
}

// NewYAMLUI creates a new YAMLUI.
func NewYAMLUI(cmd *cobra.Command) *YAMLUI {
	return &YAMLUI{cmd: cmd}
}

type classesDocument struct {
	Classes []m.ClassName `yaml:"classes"`
}

type undeterminedEntry struct {
	Class m.ClassName `yaml:"class"`
	Error string      `yaml:"error,omitempty"`
}

type derivedDocument struct {
	Ancestor     m.ClassName         `yaml:"ancestor"`
	Derived      []m.ClassName       `yaml:"derived"`
	Undetermined []undeterminedEntry `yaml:"undetermined,omitempty"`
}

// DisplayClasses writes the sorted class names.
func (y *YAMLUI) DisplayClasses(ctx context.Context, classes m.ClassNameSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return y.encode(classesDocument{Classes: classes.Sorted()})
}

// DisplayDerived writes the derived classes and, if requested, the undetermined ones.
func (y *YAMLUI) DisplayDerived(ctx context.Context, ancestor m.ClassName, results []m.AncestryResult, showUndetermined bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	derived, undetermined := partition(results)

	doc := derivedDocument{Ancestor: ancestor, Derived: make([]m.ClassName, 0, len(derived))}
	for _, r := range derived {
		doc.Derived = append(doc.Derived, r.Class)
	}

	if showUndetermined {
		for _, r := range undetermined {
			doc.Undetermined = append(doc.Undetermined, undeterminedEntry{Class: r.Class, Error: errString(r.Err)})
		}
	}

	return y.encode(doc)
}

func (y *YAMLUI) encode(doc any) error {
	enc := yaml.NewEncoder(y.cmd.OutOrStdout())
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}
