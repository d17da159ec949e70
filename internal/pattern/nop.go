package pattern

// Nop is the single-byte x86 no-op opcode.
const Nop = 0x90

// maxNopChunk caps how many 0x90 bytes are folded into one multi-byte no-op.
const maxNopChunk = 8

// nopTable maps a run length to the recommended multi-byte x86 no-op of that length.
var nopTable = map[int][]byte{
	2: {0x66, 0x90},                                           // xchg ax, ax
	3: {0x0F, 0x1F, 0x00},                                     // nop dword [rax]
	4: {0x0F, 0x1F, 0x40, 0x00},                               // nop dword [rax+0]
	5: {0x0F, 0x1F, 0x44, 0x00, 0x00},                         // nop dword [rax+rax+0]
	6: {0x66, 0x0F, 0x1F, 0x44, 0x00, 0x00},                   // nop word [rax+rax+0]
	7: {0x0F, 0x1F, 0x80, 0x00, 0x00, 0x00, 0x00},             // nop dword [rax+0]
	8: {0x0F, 0x1F, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},       // nop dword [rax+rax+0]
	9: {0x66, 0x0F, 0x1F, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00}, // nop word [rax+rax+0]
}

// NopEncoding returns the canonical no-op sequence of length n, if there is one.
func NopEncoding(n int) ([]byte, bool) {
	enc, ok := nopTable[n]
	if !ok {
		return nil, false
	}
	out := make([]byte, len(enc))
	copy(out, enc)
	return out, true
}

// CanonicalizeNops returns a copy of t with every run of literal 0x90 bytes
// rewritten into multi-byte no-ops of the same total length.
func CanonicalizeNops(t *Template) *Template {
	c := &Template{
		bytes: make([]byte, len(t.bytes)),
		wild:  make([]bool, len(t.wild)),
	}
	copy(c.bytes, t.bytes)
	copy(c.wild, t.wild)
	canonicalizeNops(c)
	return c
}

func canonicalizeNops(t *Template) {
	for _, run := range nopRuns(t) {
		start, n := run[0], run[1]
		for n > 0 {
			size := min(n, maxNopChunk)
			if enc, ok := nopTable[size]; ok {
				copy(t.bytes[start:start+size], enc)
			}
			start += size
			n -= size
		}
	}
}

// nopRuns returns [start, length] pairs for maximal runs of literal 0x90 bytes.
// Wildcard positions always break a run.
func nopRuns(t *Template) [][2]int {
	var runs [][2]int
	start := -1
	for i, b := range t.bytes {
		if b == Nop && !t.wild[i] {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			runs = append(runs, [2]int{start, i - start})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, len(t.bytes) - start})
	}
	return runs
}
