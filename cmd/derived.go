package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jumble.dev/pkg/jumble/internal/domain"
	m "jumble.dev/pkg/jumble/internal/model"
)

const derivedLongDescription = `List the classes on the class path that extend ANCESTOR (when it is a
class) or implement it (when it is an interface), directly or transitively.
ANCESTOR itself is never listed. Classes whose hierarchy cannot be read are
skipped; pass --undetermined to list them too.

` + classpathHelp

var undeterminedFlag bool

// derivedCmd represents the derived command.
var derivedCmd = newDerivedCmd()

func newDerivedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "derived ANCESTOR",
		Short: "List subclasses and implementers of a class",
		Long:  derivedLongDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			workflow, err := buildWorkflow(cmd)
			if err != nil {
				return err
			}

			return workflow.ListDerived(cmd.Context(), domain.DerivedArgs{
				ListArgs:         listArgsFromConfig(cmd),
				Ancestor:         m.ClassName(args[0]),
				BootPath:         parseSearchPath(viper.GetString(bootClasspathConfigKey)),
				ShowUndetermined: undeterminedFlag,
			})
		},
	}

	cmd.Flags().BoolVarP(&undeterminedFlag, undeterminedFlagName, "u", false, "also list classes whose ancestry could not be determined")

	return cmd
}

func init() {
	rootCmd.AddCommand(derivedCmd)
}
