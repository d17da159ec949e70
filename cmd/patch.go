package cmd

import (
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"sigpatch/internal/binfile"
	"sigpatch/internal/patch"
	"sigpatch/internal/patchset"
)

type patchOptions struct {
	config string
	input  string
	output string
	backup bool
	dryRun bool
}

var (
	rootOpts    patchOptions
	applyOpts   patchOptions
	restoreOpts patchOptions
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a patch set to a binary",
	Example: `  sigpatch apply -c trial.toml -i game.exe
  sigpatch apply -c trial.yaml -i game.exe -o game.exe --backup`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyOpts.validate(); err != nil {
			return err
		}
		return applyPatchSet(applyOpts)
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Revert a patch set previously applied to a binary",
	Long: `restore looks for each replacement template and writes the original
pattern back over it, last patch first. Without -o the input is rewritten in place.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := restoreOpts.validate(); err != nil {
			return err
		}
		return restorePatchSet(restoreOpts)
	},
}

func init() {
	addPatchFlags(applyCmd, &applyOpts)
	addPatchFlags(restoreCmd, &restoreOpts)
	rootCmd.AddCommand(applyCmd, restoreCmd)
}

func addPatchFlags(cmd *cobra.Command, o *patchOptions) {
	f := cmd.Flags()
	f.StringVarP(&o.config, "config", "c", "", "patch set file (.toml, .yaml)")
	f.StringVarP(&o.input, "input", "i", "", "binary to patch")
	f.StringVarP(&o.output, "output", "o", "", "output path (default: <input>_patched)")
	f.BoolVar(&o.backup, "backup", false, "copy an existing output file to <output>.bak first")
	f.BoolVar(&o.dryRun, "dry-run", false, "report matches without writing anything")
}

func (o patchOptions) validate() error {
	if o.config == "" {
		return errors.New("missing --config")
	}
	if o.input == "" {
		return errors.New("missing --input")
	}
	return nil
}

// applyPatchSet loads the patch set, runs it over the input and saves the result.
func applyPatchSet(o patchOptions) error {
	ps, f, err := load(o)
	if err != nil {
		return err
	}

	logger.Info("Starting patch process...", "file", f.Path)
	results, err := ps.Sequence(patch.WithLogger(logger)).Run(f.Data)
	if err != nil {
		return errors.Wrapf(err, "patch %s", f.Path)
	}
	total := patch.Total(results)
	if total == 0 {
		logger.Warn("No signatures were found in the file. The file might already be patched or is an unsupported version.")
	}

	if o.dryRun {
		logger.Info("Dry run, nothing written.", "total_patches", total)
		return nil
	}
	out, err := save(f, o.output, binfile.DefaultOutputPath(f.Path), o.backup)
	if err != nil {
		return err
	}
	logger.Info("Patching complete.", "total_patches", total, "output", out)
	return nil
}

// restorePatchSet reverts the patch set, in place unless an output is given.
func restorePatchSet(o patchOptions) error {
	ps, f, err := load(o)
	if err != nil {
		return err
	}

	logger.Info("Starting restore process...", "file", f.Path)
	results, err := ps.Sequence(patch.WithLogger(logger)).Revert(f.Data)
	if err != nil {
		return errors.Wrapf(err, "restore %s", f.Path)
	}
	total := patch.Total(results)
	if total == 0 {
		logger.Warn("No patched signatures were found in the file. The file might not be patched or is an unsupported version.")
	}

	if o.dryRun {
		logger.Info("Dry run, nothing written.", "total_restored", total)
		return nil
	}
	out, err := save(f, o.output, f.Path, o.backup)
	if err != nil {
		return err
	}
	logger.Info("Restore complete.", "total_restored", total, "output", out)
	return nil
}

func load(o patchOptions) (*patchset.PatchSet, *binfile.File, error) {
	ps, err := patchset.Load(o.config)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Using patch set", "name", ps.Name, "patches", len(ps.Operations))

	f, err := binfile.Open(o.input)
	if err != nil {
		return nil, nil, err
	}
	return ps, f, nil
}

func save(f *binfile.File, out, fallback string, backup bool) (string, error) {
	if out == "" {
		out = fallback
	}
	if backup {
		backupPath, created, err := binfile.Backup(out)
		switch {
		case errors.Is(err, binfile.ErrNoSource):
			logger.Debug("Nothing to back up", "path", out)
		case err != nil:
			return "", err
		case created:
			logger.Info("Creating backup...", "to", backupPath)
		default:
			logger.Info("Backup file already exists, skipping creation.", "backup", backupPath)
		}
	}
	return f.Save(out, logger)
}
