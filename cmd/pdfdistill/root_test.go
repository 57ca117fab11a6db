package main

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(root *cobra.Command, args ...string) (stdout, stderr string, err error) {
	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)
	root.SetOut(stdoutBuf)
	root.SetErr(stderrBuf)
	root.SetArgs(args)

	err = root.Execute()
	return stdoutBuf.String(), stderrBuf.String(), err
}

func TestRootCmdHelp(t *testing.T) {
	stdout, stderr, err := executeCommand(rootCmd, "--help")

	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "Usage:")
	assert.Contains(t, stdout, "pdfdistill -i <input>")
	assert.Contains(t, stdout, "--input")
	assert.Contains(t, stdout, "--out-ext")
	assert.Contains(t, stdout, "--workers")
	assert.Contains(t, stdout, "--version")
}

func TestRootCmdHelpListsEveryFlag(t *testing.T) {
	stdout, _, err := executeCommand(rootCmd, "--help")
	require.NoError(t, err)

	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		assert.Contains(t, stdout, "--"+f.Name, "missing flag --%s in help", f.Name)
		if f.Shorthand != "" && f.ShorthandDeprecated == "" {
			assert.Contains(t, stdout, "-"+f.Shorthand+",", "missing shorthand -%s in help", f.Shorthand)
		}
	})
	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" {
			return
		}
		assert.Contains(t, stdout, "--"+f.Name, "missing persistent flag --%s in help", f.Name)
	})
}

func TestRootCmdVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{Use: "pdfdistill"}
	testCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", "1.2.3", "abc123", "2026-01-01")
	testCmd.SetVersionTemplate(`{{.Name}} version {{.Version}}` + "\n")

	stdout, stderr, err := executeCommand(testCmd, "--version")

	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.Equal(t, "pdfdistill version 1.2.3 (commit: abc123, built: 2026-01-01)\n", stdout)
}

func TestRootCmdRequiresInput(t *testing.T) {
	testCmd := &cobra.Command{
		Use:  "pdfdistill",
		RunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
	testCmd.Flags().StringP("input", "i", "", "")
	require.NoError(t, testCmd.MarkFlagRequired("input"))

	_, _, err := executeCommand(testCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")
}

func TestRootCmdRejectsUnknownFlag(t *testing.T) {
	testCmd := &cobra.Command{
		Use:  "pdfdistill",
		RunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	_, _, err := executeCommand(testCmd, "--definitely-not-a-flag")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown flag")
}

func TestRootCmdRejectsPositionalArgs(t *testing.T) {
	testCmd := &cobra.Command{
		Use:  "pdfdistill",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error { return nil },
	}

	_, _, err := executeCommand(testCmd, "stray.pdf")
	require.Error(t, err)
}
