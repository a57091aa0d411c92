package loam

// idKey is the metadata key that overrides a document's file-derived id.
const idKey = "id"

// Metadata is the decoded frontmatter (or whole JSON/YAML body) of a pit document.
// Besides id, its keys are pit sections: name, agents, dataModels, stateModels, tests.
type Metadata map[string]any

// ID returns the explicit id, if any.
func (m Metadata) ID() string {
	id, _ := m[idKey].(string)
	return id
}

// Pit returns the metadata without the id key.
func (m Metadata) Pit() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if k == idKey {
			continue
		}
		out[k] = v
	}
	return out
}
