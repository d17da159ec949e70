package binfile

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"

	"sigpatch/internal/patch"
)

// PatchedSuffix is appended to the input file name when no output is given.
const PatchedSuffix = "_patched"

// BackupSuffix is appended to the target path for backups.
const BackupSuffix = ".bak"

// ErrNoSource is returned by Backup when there is nothing to back up.
var ErrNoSource = errors.New("backup source does not exist")

// File is a binary loaded fully into memory.
type File struct {
	Path string
	Data []byte
}

// Open reads the whole file at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return &File{Path: path, Data: data}, nil
}

// DefaultOutputPath returns "<dir>/<name>_patched" for an input path.
func DefaultOutputPath(input string) string {
	return filepath.Join(filepath.Dir(input), filepath.Base(input)+PatchedSuffix)
}

// Save writes f.Data to out, or to DefaultOutputPath(f.Path) when out is
// empty, and returns the path written. An existing file is overwritten.
func (f *File) Save(out string, logger *log.Logger) (string, error) {
	if len(f.Data) == 0 {
		return "", errors.Wrapf(patch.ErrEmptyBuffer, "save %s", f.Path)
	}
	if out == "" {
		out = DefaultOutputPath(f.Path)
	}
	if _, err := os.Stat(out); err == nil {
		logger.Warn("Output file already exists, overwriting", "path", out)
	}
	logger.Info("Saving", "to", out)

	mode := os.FileMode(0o666)
	if fi, err := os.Stat(f.Path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(out, f.Data, mode); err != nil {
		return "", errors.Wrapf(err, "write %s", out)
	}
	return out, nil
}

// Backup copies path to path+".bak" unless that backup already exists.
// It reports whether a new backup was written.
func Backup(path string) (string, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return "", false, errors.Wrapf(ErrNoSource, "%s", path)
	}
	backupPath := path + BackupSuffix
	if _, err := os.Stat(backupPath); err == nil {
		return backupPath, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, errors.Wrapf(err, "stat %s", backupPath)
	}
	if err := copyFile(path, backupPath); err != nil {
		return "", false, err
	}
	return backupPath, true, nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFileStat, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "stat %s", src)
	}

	if !sourceFileStat.Mode().IsRegular() {
		return errors.Newf("%s is not a regular file", src)
	}

	source, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "open %s", src)
	}
	defer source.Close()

	destination, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, sourceFileStat.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}
	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return errors.Wrapf(err, "copy %s to %s", src, dst)
	}
	return destination.Close()
}
