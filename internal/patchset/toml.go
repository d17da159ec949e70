package patchset

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// patchesKey holds an optional [[patches]] array of tables.
const patchesKey = "patches"

// decodeTOML accepts top-level tables keyed by patch name and/or a
// [[patches]] array. TOML tables carry no usable authoring order, so
// keyed tables are listed by name; the order field decides the rest.
func decodeTOML(data []byte) (string, []Entry, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return "", nil, errors.Wrapf(ErrInvalid, "toml line %d column %d: %s", row, col, derr.Error())
		}
		return "", nil, errors.Wrap(ErrInvalid, err.Error())
	}

	var name string
	if v, ok := doc["name"]; ok {
		s, ok := v.(string)
		if !ok {
			return "", nil, errors.Wrapf(ErrInvalid, "name must be a string, got %T", v)
		}
		name = s
	}

	var entries []Entry

	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if k == "name" || k == patchesKey {
			continue
		}
		m, ok := doc[k].(map[string]any)
		if !ok {
			return "", nil, errors.Wrapf(ErrInvalid, "unexpected top-level key %q", k)
		}
		e, err := entryFromMap(k, m)
		if err != nil {
			return "", nil, err
		}
		entries = append(entries, e)
	}

	if v, ok := doc[patchesKey]; ok {
		list, ok := v.([]any)
		if !ok {
			return "", nil, errors.Wrapf(ErrInvalid, "%s must be an array of tables", patchesKey)
		}
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return "", nil, errors.Wrapf(ErrInvalid, "%s[%d] is not a table", patchesKey, i)
			}
			n, _ := m["name"].(string)
			if n == "" {
				return "", nil, errors.Wrapf(ErrInvalid, "%s[%d] has no name", patchesKey, i)
			}
			e, err := entryFromMap(n, m)
			if err != nil {
				return "", nil, err
			}
			entries = append(entries, e)
		}
	}

	return name, entries, nil
}

func entryFromMap(name string, m map[string]any) (Entry, error) {
	e := Entry{Name: name}
	for k, v := range m {
		switch k {
		case "name":
		case "pattern", "patch":
			s, ok := v.(string)
			if !ok {
				return e, errors.Wrapf(ErrInvalid, "patch %q: %s must be a string, got %T", name, k, v)
			}
			if k == "pattern" {
				e.Pattern = s
			} else {
				e.Patch = s
			}
		case "order":
			n, ok := v.(int64)
			if !ok {
				return e, errors.Wrapf(ErrInvalid, "patch %q: order must be an integer, got %T", name, v)
			}
			e.Order = int(n)
		default:
			return e, errors.Wrapf(ErrInvalid, "patch %q: unknown key %q", name, k)
		}
	}
	if _, ok := m["order"]; !ok {
		return e, errors.Wrapf(ErrInvalid, "patch %q: missing order", name)
	}
	if e.Pattern == "" {
		return e, errors.Wrapf(ErrInvalid, "patch %q: missing pattern", name)
	}
	if e.Patch == "" {
		return e, errors.Wrapf(ErrInvalid, "patch %q: missing patch", name)
	}
	return e, nil
}
