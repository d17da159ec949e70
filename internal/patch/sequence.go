package patch

import (
	"cmp"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"sigpatch/internal/pattern"
)

// Result is what one operation did to the buffer.
type Result struct {
	Name    string
	Offsets []int
}

// Sequence runs a set of operations over a single buffer in Order.
type Sequence struct {
	ops    []*Operation
	logger *log.Logger
}

type SequenceOption func(*Sequence)

// WithLogger routes per-operation logging to l.
func WithLogger(l *log.Logger) SequenceOption {
	return func(s *Sequence) {
		s.logger = l
	}
}

// NewSequence sorts ops by Order. Equal orders keep their relative position.
func NewSequence(ops []*Operation, opts ...SequenceOption) *Sequence {
	s := &Sequence{
		ops:    slices.Clone(ops),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	slices.SortStableFunc(s.ops, func(a, b *Operation) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return s
}

// Operations returns the operations in the order Run applies them.
func (s *Sequence) Operations() []*Operation {
	return slices.Clone(s.ops)
}

// Run applies every operation to data, in place. An empty buffer is an error;
// an operation that matches nothing is not.
func (s *Sequence) Run(data []byte) ([]Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBuffer
	}
	results := make([]Result, 0, len(s.ops))
	for _, op := range s.ops {
		s.logger.Info("Running patch", "name", op.Name, "order", op.Order, "len", op.Replace.Len())
		offsets := op.Apply(data)
		s.report(op, op.Search, offsets)
		results = append(results, Result{Name: op.Name, Offsets: offsets})
	}
	return results, nil
}

// Revert undoes the sequence, last operation first.
func (s *Sequence) Revert(data []byte) ([]Result, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBuffer
	}
	results := make([]Result, 0, len(s.ops))
	for i := len(s.ops) - 1; i >= 0; i-- {
		op := s.ops[i]
		s.logger.Info("Reverting patch", "name", op.Name, "order", op.Order)
		offsets := op.Revert(data)
		s.report(op, op.Replace, offsets)
		results = append(results, Result{Name: op.Name, Offsets: offsets})
	}
	return results, nil
}

func (s *Sequence) report(op *Operation, searched *pattern.Template, offsets []int) {
	if len(offsets) == 0 {
		s.logger.Warn("Not found", "name", op.Name, "pattern", searched.String())
		return
	}
	s.logger.Info("Found matches", "name", op.Name, "count", len(offsets))
	for _, off := range offsets {
		s.logger.Debug(fmt.Sprintf(" > Offset: 0x%X", off), "name", op.Name)
	}
}

// Total counts the offsets across results.
func Total(results []Result) int {
	n := 0
	for _, r := range results {
		n += len(r.Offsets)
	}
	return n
}
