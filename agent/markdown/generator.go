package markdown

import (
	"strconv"
	"strings"

	"github.com/BaSui01/agenthub/agent/declarative"
)

const (
	indent        = "  "
	headingMarker = "#"
	quotePrefix   = "> "
	itemPrefix    = "- "
	fence         = "~~~"
)

// Generate renders node and its sub-agents as an agent document.
// The knowledge base and tool sections are always written, with a "无"
// item standing in for an empty list.
func Generate(node *declarative.AgentNode) string {
	if node == nil {
		return ""
	}
	var w writer
	w.agent(node, 1)
	return w.String()
}

type writer struct {
	strings.Builder
}

func (w *writer) agent(node *declarative.AgentNode, level int) {
	w.WriteString("\n\n")
	w.WriteString(strings.Repeat(headingMarker, level))
	w.WriteString(indent)
	w.WriteString(oneLine(node.Name))
	w.WriteString("\n\n")

	if node.Type != "" {
		w.WriteString(quotePrefix)
		w.WriteString(node.Type.Description())
		w.WriteString("\n\n")
	}
	if node.Mode != "" {
		w.pair("", labelMode, node.Mode.Description())
		w.WriteString("\n")
	}
	if desc := strings.TrimSpace(node.Description); desc != "" {
		w.pair("", labelDescription, desc)
		w.WriteString("\n")
	}
	if prompt := strings.TrimSpace(node.Prompt); prompt != "" {
		f := fenceFor(prompt)
		w.WriteString(f + "\n" + prompt + "\n" + f + "\n\n")
	}

	w.properties(node)

	for _, child := range node.SubAgents {
		if child != nil {
			w.agent(child, level+1)
		}
	}
}

func (w *writer) properties(node *declarative.AgentNode) {
	if node.Model != nil {
		w.item("", labelModel)
		w.model(node.Model, indent)
	}

	w.item("", labelKnowledgeBases)
	if len(node.KnowledgeBases) == 0 {
		w.item(indent, noneItem)
	}
	for _, kb := range node.KnowledgeBases {
		w.knowledgeBase(kb, indent)
	}

	w.item("", labelTools)
	if len(node.Tools) == 0 {
		w.item(indent, noneItem)
	}
	for _, tool := range node.Tools {
		w.tool(tool, indent)
	}
	w.WriteString("\n")
}

func (w *writer) model(m *declarative.ModelSpec, prefix string) {
	w.pair(prefix, labelModelName, m.Name)
	w.pair(prefix, labelModelAlias, m.Alias)
	w.pair(prefix, labelModelType, string(m.Type))
	w.pair(prefix, labelModelBaseURL, m.BaseURL)
	w.pair(prefix, labelModelAPIKey, m.APIKey)
}

func (w *writer) knowledgeBase(kb declarative.KnowledgeBaseSpec, prefix string) {
	w.item(prefix, kb.Name)
	sub := prefix + indent
	// 名称以外至少一行子项，否则解析时会被当作孤立条目跳过
	if kb.Description != "" || (kb.Model == nil && len(kb.Documents) == 0) {
		w.pair(sub, labelDescription, kb.Description)
	}
	if kb.Model != nil {
		w.item(sub, labelKBModel)
		w.model(kb.Model, sub+indent)
	}
	if len(kb.Documents) > 0 {
		w.item(sub, labelKBDocuments)
		for _, doc := range kb.Documents {
			w.item(sub+indent, doc)
		}
	}
}

func (w *writer) tool(tool declarative.ToolSpec, prefix string) {
	w.item(prefix, tool.Name)
	sub := prefix + indent
	if strings.TrimSpace(tool.Description) != "" {
		w.pair(sub, labelDescription, tool.Description)
	}
	if tool.SchemaType != "" {
		w.pair(sub, labelSchemaType, tool.SchemaType.Description())
	}
	if strings.TrimSpace(tool.SchemaFileName) != "" {
		w.pair(sub, labelSchemaFile, tool.SchemaFileName)
	}
	if tool.APIKeyType != "" {
		w.pair(sub, labelAPIKeyType, string(tool.APIKeyType))
	}
	if strings.TrimSpace(tool.APIKey) != "" {
		w.pair(sub, labelAPIKey, tool.APIKey)
	}
	w.pair(sub, labelAutoAgent, strconv.FormatBool(tool.AutoAgent))

	if len(tool.Functions) > 0 {
		w.item(sub, labelFunctions)
		for _, fn := range tool.Functions {
			w.item(sub+indent, fn.Name)
			method := fn.HTTPMethod
			if method == "null" {
				method = ""
			}
			w.pair(sub+indent+indent, labelMethod, method)
			w.pair(sub+indent+indent, labelExecMode, fn.Mode.Description())
		}
	}
}

// item writes a bullet whose whole text is s.
func (w *writer) item(prefix, s string) {
	w.WriteString(prefix)
	w.WriteString(itemPrefix)
	w.WriteString(oneLine(s))
	w.WriteString("\n")
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// oneLine folds line breaks into spaces. Bullets and headings hold a single line.
func oneLine(s string) string {
	return lineBreaks.Replace(s)
}

// pair writes a "label value" bullet.
func (w *writer) pair(prefix, label, value string) {
	w.item(prefix, strings.TrimRight(label+" "+value, " "))
}

// fenceFor returns a tilde fence longer than any tilde run opening a prompt line.
func fenceFor(prompt string) string {
	longest := 0
	for _, line := range strings.Split(prompt, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		n := len(trimmed) - len(strings.TrimLeft(trimmed, "~"))
		if n > longest {
			longest = n
		}
	}
	if longest < len(fence) {
		return fence
	}
	return strings.Repeat("~", longest+1)
}
