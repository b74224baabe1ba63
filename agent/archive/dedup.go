package archive

import (
	"strings"

	"github.com/BaSui01/agenthub/agent/declarative"
)

// dedupTable maps resource identity keys to the IDs already issued in one export.
// A table lives for exactly one Export call.
type dedupTable struct {
	ids            IDGenerator
	models         map[string]string
	tools          map[string]string
	knowledgeBases map[string]string
	hits           int
}

func newDedupTable(ids IDGenerator) *dedupTable {
	return &dedupTable{
		ids:            ids,
		models:         make(map[string]string),
		tools:          make(map[string]string),
		knowledgeBases: make(map[string]string),
	}
}

func modelKey(m *declarative.ModelSpec) string {
	return strings.Join([]string{m.Name, m.EffectiveAlias(), m.APIKey, m.BaseURL, string(m.Type)}, "|")
}

func toolKey(t declarative.ToolSpec) string {
	return strings.Join([]string{t.Name, t.SchemaFileName, string(t.SchemaType)}, "|")
}

func (d *dedupTable) model(m *declarative.ModelSpec) (string, bool) {
	return d.resolve(d.models, modelKey(m))
}

func (d *dedupTable) tool(t declarative.ToolSpec) (string, bool) {
	return d.resolve(d.tools, toolKey(t))
}

func (d *dedupTable) knowledgeBase(kb declarative.KnowledgeBaseSpec) (string, bool) {
	return d.resolve(d.knowledgeBases, kb.Name)
}

// resolve returns the ID for key and whether it was freshly issued.
func (d *dedupTable) resolve(table map[string]string, key string) (string, bool) {
	if id, ok := table[key]; ok {
		d.hits++
		return id, false
	}
	id := d.ids.NextID()
	table[key] = id
	return id, true
}
