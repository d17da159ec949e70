package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"sigpatch/internal/binfile"
	"sigpatch/internal/patchset"
)

func requireFile(path string) error {
	if path == "" {
		return errors.New("path cannot be empty")
	}
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return errors.Newf("%s is a directory", path)
	}
	return nil
}

func requirePatchSet(path string) error {
	if err := requireFile(path); err != nil {
		return err
	}
	_, err := patchset.FormatOf(path)
	return err
}

// runRootCmdUI prompts for everything the flags would have provided.
func runRootCmdUI(cmd *cobra.Command, args []string) error {
	var (
		o      patchOptions
		action string
	)
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Patch set").
				Description("TOML or YAML file with pattern/patch/order entries").
				Validate(requirePatchSet).
				Value(&o.config),
			huh.NewInput().
				Title("Target binary").
				Validate(requireFile).
				Value(&o.input),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Action").
				Options(
					huh.NewOption("Apply", ActionApply),
					huh.NewOption("Restore", ActionRestore),
					huh.NewOption("List", ActionList),
					huh.NewOption("Exit", ActionExit),
				).
				Value(&action),
		),
	).Run()
	if err != nil {
		return errors.Wrap(err, "UI failed")
	}

	switch action {
	case ActionApply, ActionRestore:
		o.output = o.input
		if action == ActionApply {
			o.output = binfile.DefaultOutputPath(o.input)
		}
		err = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Output path").
					Value(&o.output),
				huh.NewConfirm().
					Title("Back up the output file if it already exists?").
					Value(&o.backup),
			),
		).Run()
		if err != nil {
			return errors.Wrap(err, "UI failed")
		}
		if o.output == "" {
			return errors.New("output path cannot be empty")
		}
		if _, statErr := os.Stat(o.output); statErr == nil {
			overwrite := true
			err = huh.NewForm(
				huh.NewGroup(
					huh.NewConfirm().
						Title("Output file exists. Overwrite?").
						Description(o.output).
						Value(&overwrite),
				),
			).Run()
			if err != nil {
				return errors.Wrap(err, "UI failed")
			}
			if !overwrite {
				logger.Info("Exiting...")
				return nil
			}
		}
		if action == ActionApply {
			return applyPatchSet(o)
		}
		return restorePatchSet(o)

	case ActionList:
		out, err := renderPatchSet(o.config, o.input)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil

	case ActionExit:
		logger.Info("Exiting...")
		return nil

	default:
		logger.Info("Unknown action")
		return nil
	}
}
