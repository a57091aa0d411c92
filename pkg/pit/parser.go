package pit

import (
	"fmt"

	"github.com/aretw0/orchard/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Parse decodes one YAML document. Scalars are weakly typed, so `size: "8"` and
// `value: 4` are both accepted.
func Parse(data []byte) (*Document, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse pit: %w", err)
	}
	return Decode(raw)
}

// Decode maps already-parsed metadata onto a Document.
func Decode(raw map[string]any) (*Document, error) {
	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &doc,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode pit: %w", err)
	}
	return &doc, nil
}

// Merge joins documents in order. The first non-empty name wins.
func Merge(docs ...*Document) *Document {
	out := &Document{}
	for _, d := range docs {
		if d == nil {
			continue
		}
		if out.Name == "" {
			out.Name = d.Name
		}
		out.Agents = append(out.Agents, d.Agents...)
		out.DataModels = append(out.DataModels, d.DataModels...)
		out.StateModels = append(out.StateModels, d.StateModels...)
		out.Tests = append(out.Tests, d.Tests...)
	}
	return out
}

// Load parses every document of loader, in listing order, and merges them.
func Load(loader ports.PitLoader) (*Document, error) {
	ids, err := loader.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("failed to list pit documents: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("pit has no documents")
	}

	docs := make([]*Document, 0, len(ids))
	for _, id := range ids {
		data, err := loader.GetDocument(id)
		if err != nil {
			return nil, err
		}
		doc, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", id, err)
		}
		docs = append(docs, doc)
	}
	return Merge(docs...), nil
}
