package skills

import (
	"bytes"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// knownHeaderFields are emitted first, in this order, from the record's own
// fields. Remaining RawMetadata keys follow in sorted order so output is stable.
var knownHeaderFields = map[string]bool{
	"name":        true,
	"description": true,
	"version":     true,
	"author":      true,
	"category":    true,
	"tags":        true,
}

// Render serializes a record back into frontmatter document form. It is the
// structural inverse of Parse for any document Render produces: parsing the
// output reproduces the same semantic fields.
func Render(rec *SkillRecord) ([]byte, error) {
	header := &yaml.Node{Kind: yaml.MappingNode}

	appendField := func(key string, value interface{}) error {
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(value); err != nil {
			return errors.Wrapf(err, "failed to encode header field %q", key)
		}
		header.Content = append(header.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			valueNode,
		)
		return nil
	}

	if err := appendField("name", rec.Name); err != nil {
		return nil, err
	}
	if err := appendField("description", rec.Description); err != nil {
		return nil, err
	}
	if err := appendField("version", rec.Version); err != nil {
		return nil, err
	}
	if err := appendField("author", rec.Author); err != nil {
		return nil, err
	}
	if err := appendField("category", rec.Category); err != nil {
		return nil, err
	}
	if len(rec.Tags) > 0 {
		if err := appendField("tags", rec.Tags); err != nil {
			return nil, err
		}
	}

	extraKeys := make([]string, 0, len(rec.RawMetadata))
	for key := range rec.RawMetadata {
		if !knownHeaderFields[key] {
			extraKeys = append(extraKeys, key)
		}
	}
	sort.Strings(extraKeys)
	for _, key := range extraKeys {
		if err := appendField(key, rec.RawMetadata[key]); err != nil {
			return nil, err
		}
	}

	headerBytes, err := yaml.Marshal(header)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal frontmatter")
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(headerBytes)
	buf.WriteString("---\n\n")
	buf.WriteString(rec.Body)
	buf.WriteString("\n")

	return buf.Bytes(), nil
}
