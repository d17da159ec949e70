package patch

import (
	"github.com/cockroachdb/errors"

	"sigpatch/internal/pattern"
)

var (
	ErrLengthMismatch = errors.New("search and replacement lengths differ")
	ErrEmptyBuffer    = errors.New("buffer is empty")
)

// Operation is one named find/replace rule. Order decides when it runs
// relative to the other operations of a Sequence.
type Operation struct {
	Name    string
	Order   int
	Search  *pattern.Template
	Replace *pattern.Template
}

// NewOperation compiles a search signature and a replacement signature.
// The replacement gets its 0x90 runs canonicalized; the search never does.
func NewOperation(name, search, replace string, order int) (*Operation, error) {
	s, err := pattern.Compile(search)
	if err != nil {
		return nil, errors.Wrapf(err, "patch %q: pattern", name)
	}
	r, err := pattern.Compile(replace, pattern.WithCanonicalNops())
	if err != nil {
		return nil, errors.Wrapf(err, "patch %q: replacement", name)
	}
	if s.Len() != r.Len() {
		return nil, errors.Wrapf(ErrLengthMismatch, "patch %q: pattern has %d bytes, replacement has %d", name, s.Len(), r.Len())
	}
	return &Operation{
		Name:    name,
		Order:   order,
		Search:  s,
		Replace: r,
	}, nil
}

// Apply overwrites every match of the search template in data and returns the
// offsets that were patched. Matches are collected before anything is written.
func (op *Operation) Apply(data []byte) []int {
	return rewrite(data, op.Search, op.Replace)
}

// Revert undoes Apply: it finds the replacement template and writes the search
// template back over it.
func (op *Operation) Revert(data []byte) []int {
	return rewrite(data, op.Replace, op.Search)
}

func rewrite(data []byte, find, with *pattern.Template) []int {
	offsets := find.FindAll(data)
	for _, off := range offsets {
		splice(data[off:off+with.Len()], with)
	}
	return offsets
}

// splice writes tpl into window. Wildcard positions keep whatever the window
// holds right now, including bytes written by an earlier overlapping match.
func splice(window []byte, tpl *pattern.Template) {
	for j := range window {
		if !tpl.IsWildcard(j) {
			window[j] = tpl.At(j)
		}
	}
}
