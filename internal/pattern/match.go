package pattern

// Matches reports whether window satisfies t: every non-wildcard position
// must hold the same byte. window must be exactly t.Len() long.
func (t *Template) Matches(window []byte) bool {
	if len(window) != len(t.bytes) {
		return false
	}
	for j, b := range t.bytes {
		if !t.wild[j] && window[j] != b {
			return false
		}
	}
	return true
}

// FindFirst returns the lowest offset in data where t matches.
func (t *Template) FindFirst(data []byte) (int, bool) {
	n := len(t.bytes)
	for i := 0; i+n <= len(data); i++ {
		if t.Matches(data[i : i+n]) {
			return i, true
		}
	}
	return 0, false
}

// FindAll returns every offset in data where t matches, ascending.
// Matches may overlap.
func (t *Template) FindAll(data []byte) []int {
	var offsets []int
	n := len(t.bytes)
	for i := 0; i+n <= len(data); i++ {
		if t.Matches(data[i : i+n]) {
			offsets = append(offsets, i)
		}
	}
	return offsets
}
