package patchset

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type yamlDoc struct {
	Name    string    `yaml:"name"`
	Patches yaml.Node `yaml:"patches"`
}

type yamlEntry struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`
	Patch   string `yaml:"patch"`
	Order   *int   `yaml:"order"`
}

// decodeYAML reads "patches" either as a mapping of name to entry or as a
// list of entries with a name field. Document order is kept in both cases.
func decodeYAML(data []byte) (string, []Entry, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", nil, errors.Wrap(ErrInvalid, err.Error())
	}

	var entries []Entry
	switch doc.Patches.Kind {
	case 0:
		// no patches key
	case yaml.MappingNode:
		content := doc.Patches.Content
		for i := 0; i+1 < len(content); i += 2 {
			key, val := content[i], content[i+1]
			e, err := entryFromNode(key.Value, val)
			if err != nil {
				return "", nil, err
			}
			entries = append(entries, e)
		}
	case yaml.SequenceNode:
		for _, val := range doc.Patches.Content {
			e, err := entryFromNode("", val)
			if err != nil {
				return "", nil, err
			}
			entries = append(entries, e)
		}
	default:
		return "", nil, errors.Wrapf(ErrInvalid, "line %d: patches must be a mapping or a list", doc.Patches.Line)
	}
	return doc.Name, entries, nil
}

func entryFromNode(name string, n *yaml.Node) (Entry, error) {
	var ye yamlEntry
	if err := n.Decode(&ye); err != nil {
		return Entry{}, errors.Wrapf(ErrInvalid, "line %d: %s", n.Line, err.Error())
	}
	if name == "" {
		name = ye.Name
	}
	if name == "" {
		return Entry{}, errors.Wrapf(ErrInvalid, "line %d: patch has no name", n.Line)
	}
	if ye.Order == nil {
		return Entry{}, errors.Wrapf(ErrInvalid, "line %d: patch %q: missing order", n.Line, name)
	}
	if ye.Pattern == "" {
		return Entry{}, errors.Wrapf(ErrInvalid, "line %d: patch %q: missing pattern", n.Line, name)
	}
	if ye.Patch == "" {
		return Entry{}, errors.Wrapf(ErrInvalid, "line %d: patch %q: missing patch", n.Line, name)
	}
	return Entry{
		Name:    name,
		Pattern: ye.Pattern,
		Patch:   ye.Patch,
		Order:   *ye.Order,
	}, nil
}
