// Package patchset loads named patch definitions from TOML or YAML files.
//
// A TOML set looks like:
//
//	name = "example"
//
//	[skip_check]
//	pattern = "84 C0 74 ? B0 01"
//	patch   = "84 C0 74 ? B0 00"
//	order   = 1
//
// Patches may also be given as a [[patches]] array of tables with a name key.
// A YAML set uses a "patches" mapping (name to entry) or list.
package patchset

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"sigpatch/internal/patch"
)

type Format int

const (
	TOML Format = iota
	YAML
)

var (
	ErrUnknownFormat = errors.New("unknown patch set format")
	ErrInvalid       = errors.New("invalid patch set")
)

// Entry is one patch as written in the file, before compilation.
type Entry struct {
	Name    string
	Pattern string
	Patch   string
	Order   int
}

// PatchSet is a loaded definition with its operations sorted by order.
type PatchSet struct {
	Name       string
	Operations []*patch.Operation
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, errors.Wrapf(ErrUnknownFormat, "%s", path)
}

// Load reads and compiles the patch set at path. A set without a name is
// named after the file.
func Load(path string) (*PatchSet, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read patch set %s", path)
	}
	ps, err := Decode(data, format)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	if ps.Name == "" {
		ps.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return ps, nil
}

// Decode parses and compiles a patch set. Any bad entry fails the whole set.
func Decode(data []byte, format Format) (*PatchSet, error) {
	var (
		name    string
		entries []Entry
		err     error
	)
	switch format {
	case TOML:
		name, entries, err = decodeTOML(data)
	case YAML:
		name, entries, err = decodeYAML(data)
	default:
		return nil, ErrUnknownFormat
	}
	if err != nil {
		return nil, err
	}
	return compile(name, entries)
}

func compile(name string, entries []Entry) (*PatchSet, error) {
	ps := &PatchSet{Name: name}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, errors.Wrap(ErrInvalid, "patch without a name")
		}
		if seen[e.Name] {
			return nil, errors.Wrapf(ErrInvalid, "duplicate patch %q", e.Name)
		}
		seen[e.Name] = true

		op, err := patch.NewOperation(e.Name, e.Pattern, e.Patch, e.Order)
		if err != nil {
			return nil, err
		}
		ps.Operations = append(ps.Operations, op)
	}
	slices.SortStableFunc(ps.Operations, func(a, b *patch.Operation) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return ps, nil
}

// Sequence wraps the operations for running.
func (ps *PatchSet) Sequence(opts ...patch.SequenceOption) *patch.Sequence {
	return patch.NewSequence(ps.Operations, opts...)
}
