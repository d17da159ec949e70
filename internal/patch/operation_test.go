package patch

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigpatch/internal/pattern"
)

func TestApplyCanonicalizesReplacement(t *testing.T) {
	op, err := NewOperation("test", "48 80 80 8B", "48 90 90 8B", 0)
	require.NoError(t, err)

	data := []byte{0x48, 0x80, 0x80, 0x8B}
	offsets := op.Apply(data)
	assert.Equal(t, []int{0}, offsets)
	assert.Equal(t, []byte{0x48, 0x66, 0x90, 0x8B}, data)
}

func TestApplyWildcardKeepsOriginal(t *testing.T) {
	op, err := NewOperation("wildcard-test", "E8 05 14 23 55", "E8 ? ? ? 90", 0)
	require.NoError(t, err)

	data := []byte{0xE8, 0x05, 0x14, 0x23, 0x55}
	op.Apply(data)
	assert.Equal(t, []byte{0xE8, 0x05, 0x14, 0x23, 0x90}, data)
}

func TestApplyWildcardUsesAbsoluteOffset(t *testing.T) {
	op, err := NewOperation("call", "E8 ? ? ? ?", "B8 ? ? ? ?", 0)
	require.NoError(t, err)

	data := []byte{0x00, 0x11, 0x22, 0xE8, 0xAA, 0xBB, 0xCC, 0xDD, 0x33}
	assert.Equal(t, []int{3}, op.Apply(data))
	assert.Equal(t, []byte{0x00, 0x11, 0x22, 0xB8, 0xAA, 0xBB, 0xCC, 0xDD, 0x33}, data)
}

func TestApplyEveryMatch(t *testing.T) {
	op, err := NewOperation("jz", "74 ?", "EB ?", 0)
	require.NoError(t, err)

	data := []byte{0x74, 0x05, 0x90, 0x74, 0x10}
	assert.Equal(t, []int{0, 3}, op.Apply(data))
	assert.Equal(t, []byte{0xEB, 0x05, 0x90, 0xEB, 0x10}, data)
}

func TestApplyOverlappingMatches(t *testing.T) {
	// Offsets are fixed up front; the second match sees the first one's write.
	op, err := NewOperation("overlap", "AA AA", "? BB", 0)
	require.NoError(t, err)

	data := []byte{0xAA, 0xAA, 0xAA}
	assert.Equal(t, []int{0, 1}, op.Apply(data))
	assert.Equal(t, []byte{0xAA, 0xBB, 0xBB}, data)
}

func TestApplyNoMatch(t *testing.T) {
	op, err := NewOperation("missing", "DE AD", "BE EF", 0)
	require.NoError(t, err)

	data := []byte{0x01, 0x02, 0x03}
	assert.Empty(t, op.Apply(data))
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, data)
}

func TestNewOperationErrors(t *testing.T) {
	_, err := NewOperation("short", "48 8B 05", "48 8B", 0)
	assert.True(t, errors.Is(err, ErrLengthMismatch), "got %v", err)
	assert.Contains(t, err.Error(), `"short"`)

	_, err = NewOperation("empty", "", "90", 0)
	assert.True(t, errors.Is(err, pattern.ErrEmptyPattern), "got %v", err)

	_, err = NewOperation("bad", "48", "XY", 0)
	assert.True(t, errors.Is(err, pattern.ErrBadToken), "got %v", err)
}

func TestSearchIsNotCanonicalized(t *testing.T) {
	op, err := NewOperation("nops", "90 90 90", "CC CC CC", 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x90, 0x90, 0x90}, op.Search.Bytes())

	data := []byte{0x90, 0x90, 0x90}
	op.Apply(data)
	assert.Equal(t, []byte{0xCC, 0xCC, 0xCC}, data)
}

func TestRevert(t *testing.T) {
	op, err := NewOperation("trial", "B0 01 48 ? 4C", "B0 00 48 ? 4C", 0)
	require.NoError(t, err)

	orig := []byte{0x15, 0xB0, 0x01, 0x48, 0x8B, 0x4C, 0xC3}
	data := append([]byte(nil), orig...)

	assert.Equal(t, []int{1}, op.Apply(data))
	assert.Equal(t, byte(0x00), data[2])

	assert.Equal(t, []int{1}, op.Revert(data))
	assert.Equal(t, orig, data)
}
