package pattern

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Wildcard is the character that marks a token as "any byte".
const Wildcard = '?'

var (
	ErrEmptyPattern = errors.New("pattern has no tokens")
	ErrBadToken     = errors.New("malformed pattern token")
)

// Template is a compiled signature: a byte sequence plus the positions that
// match (or, on the replacement side, keep) any byte.
type Template struct {
	bytes []byte
	wild  []bool
}

// Option tweaks compilation.
type Option func(*compileOptions)

type compileOptions struct {
	canonicalNops bool
}

// WithCanonicalNops rewrites 0x90 runs into multi-byte no-ops after parsing.
// Only replacement templates should use it.
func WithCanonicalNops() Option {
	return func(o *compileOptions) {
		o.canonicalNops = true
	}
}

// Compile parses whitespace-separated tokens like "48 8B ? 90" into a Template.
// Any token containing '?' is a wildcard; every other token must be a hex
// byte of one or two digits.
func Compile(src string, opts ...Option) (*Template, error) {
	var o compileOptions
	for _, opt := range opts {
		opt(&o)
	}

	tokens := strings.Fields(src)
	if len(tokens) == 0 {
		return nil, ErrEmptyPattern
	}

	t := &Template{
		bytes: make([]byte, len(tokens)),
		wild:  make([]bool, len(tokens)),
	}
	for i, tok := range tokens {
		if strings.ContainsRune(tok, Wildcard) {
			t.wild[i] = true
			continue
		}
		if len(tok) > 2 {
			return nil, errors.Wrapf(ErrBadToken, "token %d %q", i, tok)
		}
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, errors.Wrapf(ErrBadToken, "token %d %q", i, tok)
		}
		t.bytes[i] = byte(v)
	}

	if o.canonicalNops {
		canonicalizeNops(t)
	}
	return t, nil
}

// MustCompile is like Compile but panics on error. Meant for literals.
func MustCompile(src string, opts ...Option) *Template {
	t, err := Compile(src, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of positions in the template.
func (t *Template) Len() int {
	return len(t.bytes)
}

// Bytes returns a copy of the template bytes. Wildcard positions hold zero.
func (t *Template) Bytes() []byte {
	out := make([]byte, len(t.bytes))
	copy(out, t.bytes)
	return out
}

// At returns the byte at position i; meaningless if IsWildcard(i).
func (t *Template) At(i int) byte {
	return t.bytes[i]
}

func (t *Template) IsWildcard(i int) bool {
	return t.wild[i]
}

// Wildcards lists the wildcard positions in ascending order.
func (t *Template) Wildcards() []int {
	var out []int
	for i, w := range t.wild {
		if w {
			out = append(out, i)
		}
	}
	return out
}

// String renders the template back into token form, e.g. "E8 ? ? ? 90".
func (t *Template) String() string {
	var sb strings.Builder
	for i, b := range t.bytes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if t.wild[i] {
			sb.WriteRune(Wildcard)
			continue
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
