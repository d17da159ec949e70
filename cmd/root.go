/*
Copyright © 2025 @Veha0001
*/
package cmd

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const (
	ActionApply   = "apply"
	ActionRestore = "restore"
	ActionList    = "list"
	ActionExit    = "exit"
)

// version is set at build time with -ldflags "-X sigpatch/cmd.version=...".
var version = "dev"

var logger = log.New(os.Stderr)

var verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sigpatch",
	Short: "apply declarative byte-signature patches to a binary",
	Long: `sigpatch scans a binary for hex signatures (with ? wildcards) and
overwrites every match with a replacement template. Patch sets are TOML or
YAML files listing named pattern/patch/order entries.

Run without a subcommand and without flags to be prompted interactively.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logger.SetLevel(log.DebugLevel)
		}
	},
	RunE: runRoot,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every patched offset")
	addPatchFlags(rootCmd, &rootOpts)
}

// runRoot applies a patch set when flags are given and falls back to the
// interactive prompts otherwise.
func runRoot(cmd *cobra.Command, args []string) error {
	if rootOpts.config == "" && rootOpts.input == "" {
		return runRootCmdUI(cmd, args)
	}
	if err := rootOpts.validate(); err != nil {
		return err
	}
	return applyPatchSet(rootOpts)
}
