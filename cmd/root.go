// Package cmd provides the root command and CLI setup for jumble.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"jumble.dev/pkg/jumble/internal/adapter"
	"jumble.dev/pkg/jumble/internal/controller"
	"jumble.dev/pkg/jumble/internal/domain"
	m "jumble.dev/pkg/jumble/internal/model"
)

var fsAdapter adapter.ClasspathFSAdapter

var (
	classpathFlag     string
	bootClasspathFlag string
	packagesFlag      []string
	formatFlag        string
	parallelFlag      int
	verboseFlag       bool
	logFileFlag       string
)

func init() {
	configureRootFlags(rootCmd)

	fsAdapter = adapter.NewLocalClasspathFSAdapter()
}

const classpathHelp = `The class path is a list of directories and archives (.jar, .zip or any
zip-formatted file) separated by the platform list separator (":" on Unix).
It is taken from --classpath, the scan.classpath config key, JUMBLE_SCAN_CLASSPATH
or CLASSPATH, in that order, and defaults to the current directory.`

const rootLongDescription = `Jumble discovers the compiled classes visible on a class path and the
subclasses or implementers of a given class, so a mutation testing run
knows which classes to re-verify.

` + classpathHelp

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "jumble",
		Short:        "Class discovery for mutation testing",
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(verboseConfigKey))
		},
	}
}

// configureRootFlags registers the persistent flags. Flag defaults are the
// built-in ones; viper layers env and config values underneath changed flags.
func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVarP(&classpathFlag, classpathFlagName, "c", "", "class path to scan")
	bindFlagToConfig(flags.Lookup(classpathFlagName), classpathConfigKey)

	flags.StringVar(&bootClasspathFlag, bootClasspathFlagName, "",
		"extra class path used only to resolve superclasses and interfaces")
	bindFlagToConfig(flags.Lookup(bootClasspathFlagName), bootClasspathConfigKey)

	flags.StringArrayVarP(&packagesFlag, packageFlagName, "p", nil,
		"restrict discovery to a package (can be repeated, \".\" is the default package)")
	bindFlagToConfig(flags.Lookup(packageFlagName), packagesConfigKey)

	flags.StringVarP(&formatFlag, formatFlagName, "f", defaultFormat, "output format: plain, table or yaml")
	bindFlagToConfig(flags.Lookup(formatFlagName), formatConfigKey)

	flags.IntVarP(&parallelFlag, parallelFlagName, "j", defaultParallel, "number of packages scanned in parallel")
	bindFlagToConfig(flags.Lookup(parallelFlagName), parallelConfigKey)

	flags.BoolVarP(&verboseFlag, verboseFlagName, "v", defaultLogVerbose,
		"report skipped entries and unresolvable classes on stderr and log at debug level")
	bindFlagToConfig(flags.Lookup(verboseFlagName), verboseConfigKey)

	flags.StringVar(&logFileFlag, logFileFlagName, defaultLogFilename, "log file path")
	bindFlagToConfig(flags.Lookup(logFileFlagName), logFilenameKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// buildWorkflow wires the workflow to an output UI for cmd.
func buildWorkflow(cmd *cobra.Command) (domain.Workflow, error) {
	format, err := controller.ParseFormat(viper.GetString(formatConfigKey))
	if err != nil {
		return nil, err
	}

	ui := controller.NewUI(cmd, format, controller.IsTTY(os.Stdout) && cmd.OutOrStdout() == os.Stdout)

	return domain.NewWorkflow(fsAdapter, ui), nil
}

// listArgsFromConfig collects the discovery arguments shared by all commands.
func listArgsFromConfig(cmd *cobra.Command) domain.ListArgs {
	return domain.ListArgs{
		SearchPath:  parseSearchPath(resolveClasspath()),
		Packages:    parsePackages(viper.GetStringSlice(packagesConfigKey)),
		Parallel:    viper.GetInt(parallelConfigKey),
		Diagnostics: diagnosticsLogger(cmd, viper.GetBool(verboseConfigKey)),
	}
}

// resolveClasspath picks the class path from config, then CLASSPATH, then ".".
func resolveClasspath() string {
	if cp := strings.TrimSpace(viper.GetString(classpathConfigKey)); cp != "" {
		return cp
	}

	if cp := strings.TrimSpace(os.Getenv("CLASSPATH")); cp != "" {
		return cp
	}

	return "."
}

// parseSearchPath splits classpath and makes every entry absolute against
// the working directory, the way the JVM resolves relative entries.
func parseSearchPath(classpath string) m.SearchPath {
	path := m.ParseSearchPath(classpath, filepath.ListSeparator)

	for i, entry := range path {
		abs, err := filepath.Abs(string(entry.Path))
		if err != nil {
			slog.Warn("Cannot resolve class path entry", "path", entry.Path, "error", err)
			continue
		}

		path[i].Path = m.Path(abs)
	}

	return path
}

// parsePackages normalises package names; "" (the default package) is kept
// and duplicates are dropped.
func parsePackages(values []string) []string {
	seen := make(map[string]bool, len(values))
	packages := make([]string, 0, len(values))

	for _, v := range values {
		pkg := strings.Trim(strings.TrimSpace(v), ".")
		if seen[pkg] {
			continue
		}

		seen[pkg] = true
		packages = append(packages, pkg)
	}

	return packages
}

// diagnosticsLogger returns the sink for non-fatal scan notices: stderr in
// verbose mode, nothing otherwise.
func diagnosticsLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if !verbose {
		return nil
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}
