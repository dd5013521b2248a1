package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "jumble.dev/pkg/jumble/internal/model"
)

func TestParsePackages(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"empty", []string{}, []string{}},
		{"single", []string{"com.example"}, []string{"com.example"}},
		{"trims dots and spaces", []string{" com.example. "}, []string{"com.example"}},
		{"dot is default package", []string{"."}, []string{""}},
		{"duplicates dropped", []string{"a", "b", "a"}, []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parsePackages(tt.args))
		})
	}
}

func TestParseSearchPath(t *testing.T) {
	sep := string(filepath.ListSeparator)
	wd, err := os.Getwd()
	require.NoError(t, err)

	abs := filepath.Join(wd, "other", "x.jar")
	got := parseSearchPath("classes" + sep + "lib/a.jar" + sep + abs + sep + ".")

	assert.Equal(t, m.SearchPath{
		{Path: m.Path(filepath.Join(wd, "classes"))},
		{Path: m.Path(filepath.Join(wd, "lib", "a.jar"))},
		{Path: m.Path(abs)},
		{Path: m.Path(wd)},
	}, got)
}

func TestResolveClasspath(t *testing.T) {
	configureRootFlags(newRootCmd())

	t.Setenv("JUMBLE_SCAN_CLASSPATH", "")
	t.Setenv("CLASSPATH", "")
	assert.Equal(t, ".", resolveClasspath())

	t.Setenv("CLASSPATH", "from/env")
	assert.Equal(t, "from/env", resolveClasspath())

	t.Setenv("JUMBLE_SCAN_CLASSPATH", "from/jumble")
	assert.Equal(t, "from/jumble", resolveClasspath())
}

func TestDiagnosticsLogger(t *testing.T) {
	cmd := &cobra.Command{}
	errOut := &bytes.Buffer{}
	cmd.SetErr(errOut)

	assert.Nil(t, diagnosticsLogger(cmd, false))

	logger := diagnosticsLogger(cmd, true)
	require.NotNil(t, logger)
	logger.Debug("package directory not found")
	assert.Contains(t, errOut.String(), "package directory not found")
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd()
	assert.Equal(t, "jumble", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.Equal(t, rootLongDescription, cmd.Long)
}

func TestRootCmd_HelpOutput(t *testing.T) {
	cmd := newRootCmd()
	output := &bytes.Buffer{}
	cmd.SetOut(output)
	cmd.SetErr(&bytes.Buffer{})

	cmd.SetArgs([]string{})
	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, output.String(), "Usage:")
	assert.Contains(t, output.String(), "platform list separator")
}

func TestRootCmd_Subcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, want := range []string{"classes", "derived", "init", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	for _, flag := range []string{classpathFlagName, bootClasspathFlagName, packageFlagName, formatFlagName, parallelFlagName, verboseFlagName, logFileFlagName} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestInit(t *testing.T) {
	assert.NotNil(t, fsAdapter)
}

func TestExecute_WithError(t *testing.T) {
	originalRootCmd := rootCmd
	defer func() {
		rootCmd = originalRootCmd
	}()

	mockCmd := &cobra.Command{
		Use: "test",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("command failed")
		},
	}
	mockCmd.SetOut(&bytes.Buffer{})
	mockCmd.SetErr(&bytes.Buffer{})

	rootCmd = mockCmd

	err := rootCmd.Execute()
	require.Error(t, err)
}

func TestExecute_ProcessLevel_Failure(t *testing.T) {
	if os.Getenv("TEST_EXECUTE_SUBPROCESS_FAIL") == "1" {
		originalRootCmd := rootCmd
		mockCmd := &cobra.Command{
			Use: "test",
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(os.Stderr, "error occurred")
				return fmt.Errorf("command failed")
			},
		}
		mockCmd.SetOut(os.Stdout)
		mockCmd.SetErr(os.Stderr)
		rootCmd = mockCmd
		defer func() { rootCmd = originalRootCmd }()

		Execute() // exits with status 1
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestExecute_ProcessLevel_Failure")
	cmd.Env = append(os.Environ(), "TEST_EXECUTE_SUBPROCESS_FAIL=1")
	output, err := cmd.CombinedOutput()

	require.Error(t, err)

	if exitErr, ok := err.(*exec.ExitError); ok {
		assert.Equal(t, 1, exitErr.ExitCode())
	} else {
		assert.Fail(t, "expected exec.ExitError", "got %T", err)
	}

	assert.Contains(t, string(output), "error occurred")
}
