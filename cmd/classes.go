package cmd

import (
	"github.com/spf13/cobra"
)

const classesLongDescription = `List the fully qualified names of all classes visible on the class path,
optionally restricted to one or more packages with --package.

` + classpathHelp

// classesCmd represents the classes command.
var classesCmd = newClassesCmd()

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List classes visible on the class path",
		Long:  classesLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			workflow, err := buildWorkflow(cmd)
			if err != nil {
				return err
			}

			return workflow.ListClasses(cmd.Context(), listArgsFromConfig(cmd))
		},
	}
}

func init() {
	rootCmd.AddCommand(classesCmd)
}
