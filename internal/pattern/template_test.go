package pattern

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		bytes     []byte
		wildcards []int
	}{
		{"plain", "48 8B 4C", []byte{0x48, 0x8B, 0x4C}, nil},
		{"lowercase", "e8 ff", []byte{0xE8, 0xFF}, nil},
		{"single digit", "F 0", []byte{0x0F, 0x00}, nil},
		{"wildcards", "83 3D ? ? 75 ?? 8B", []byte{0x83, 0x3D, 0, 0, 0x75, 0, 0x8B}, []int{2, 3, 5}},
		{"extra whitespace", "  E8\t?  90\n", []byte{0xE8, 0, 0x90}, []int{1}},
		{"all wildcards", "? ? ?", []byte{0, 0, 0}, []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := Compile(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.bytes, tpl.Bytes())
			assert.Equal(t, tt.wildcards, tpl.Wildcards())
			assert.Equal(t, len(tt.bytes), tpl.Len())
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  error
	}{
		{"empty", "", ErrEmptyPattern},
		{"blank", "   \t ", ErrEmptyPattern},
		{"not hex", "48 ZZ", ErrBadToken},
		{"too long", "48 100", ErrBadToken},
		{"three digits in range", "0FF", ErrBadToken},
		{"sign", "+1", ErrBadToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tpl, err := Compile(tt.src)
			assert.Nil(t, tpl)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestTemplateString(t *testing.T) {
	tpl := MustCompile("e8 ?? ? 0 90")
	assert.Equal(t, "E8 ? ? 00 90", tpl.String())
}

func TestBytesReturnsCopy(t *testing.T) {
	tpl := MustCompile("48 8B")
	b := tpl.Bytes()
	b[0] = 0
	assert.Equal(t, byte(0x48), tpl.At(0))
}

func TestMustCompilePanics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("") })
}
